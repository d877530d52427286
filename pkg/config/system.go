package config

// ServerConfig holds the HTTP/WebSocket listening surface gin.Engine and
// the events.ConnectionManager need at construction.
type ServerConfig struct {
	ListenAddr       string   `yaml:"listen_addr" validate:"required"`
	AllowedWSOrigins []string `yaml:"allowed_ws_origins,omitempty"`
}
