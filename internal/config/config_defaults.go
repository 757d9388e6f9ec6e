package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults registers every configuration default with viper. Values here
// are the lowest-precedence layer; config file, environment, and Vault all
// override them.
func setDefaults(v *viper.Viper) {
	// AI defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.5-flash")
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.timeout", 30*time.Second)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.maxOutputTokens", 1024)
	v.SetDefault("ai.systemPrompt", "")
	v.SetDefault("ai.systemPromptFile", "")
	v.SetDefault("ai.circuitBreaker.enabled", true)
	v.SetDefault("ai.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.timeout", 30*time.Second)
	v.SetDefault("ai.circuitBreaker.minRequests", 5)
	v.SetDefault("ai.circuitBreaker.failureThreshold", 0.6)

	// Search provider defaults
	v.SetDefault("search.provider", "usajobs")
	v.SetDefault("search.host", "https://data.usajobs.gov")
	v.SetDefault("search.apiKey", "")
	v.SetDefault("search.userAgent", "")
	v.SetDefault("search.timeout", 10*time.Second)
	v.SetDefault("search.maxResults", 20)
	v.SetDefault("search.outboundRps", 5.0)
	v.SetDefault("search.outboundBurst", 10)
	v.SetDefault("search.circuitBreaker.enabled", true)
	v.SetDefault("search.circuitBreaker.maxRequests", 3)
	v.SetDefault("search.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("search.circuitBreaker.timeout", 20*time.Second)
	v.SetDefault("search.circuitBreaker.minRequests", 5)
	v.SetDefault("search.circuitBreaker.failureThreshold", 0.6)

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 60*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.allowedOrigins", []string{})
	v.SetDefault("server.maxRequestSize", 1<<20) // 1MB

	// TLS defaults
	v.SetDefault("server.tls.mode", "disabled")
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")

	// Rate limiting defaults (off; the service is public by contract)
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App defaults
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})

	// Vault defaults (disabled unless address is set)
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.mountPath", "secret")
	v.SetDefault("vault.secretPath", "jobgate")
	v.SetDefault("vault.timeout", 10*time.Second)

	// Observability defaults
	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.serviceName", "jobgate")
	v.SetDefault("observability.serviceVersion", "dev")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 30*time.Second)
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", false)
	v.SetDefault("observability.prometheus.enabled", false)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.healthCheck.timeout", 5*time.Second)
	v.SetDefault("observability.healthCheck.aiModelCheckTimeout", 3*time.Second)
}
