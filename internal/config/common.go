package config

// Config 配置主体
type Config struct {
	API               APIConfig         `mapstructure:"api"`
	Auth              AuthConfig        `mapstructure:"auth"`
	Feed              FeedConfig        `mapstructure:"feed"`
	Push              PushConfig        `mapstructure:"push"`
	Redis             RedisConfig       `mapstructure:"redis"`
	Kafka             KafkaConfig       `mapstructure:"kafka"`
	KafkaFeedConsumer KafkaFeedConsumer `mapstructure:"kafka_feed_consumer"`
	MinIO             MinIOConfig       `mapstructure:"minio"`
	Logstash          LogstashConfig    `mapstructure:"logstash"`
}

// APIConfig 后端 REST 接入配置
type APIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	RetryCount     int    `mapstructure:"retry_count"`
}

// AuthConfig 身份子系统下发的访问令牌
type AuthConfig struct {
	Token string `mapstructure:"token"`
}

// FeedConfig Feed 引擎行为配置
type FeedConfig struct {
	PageSize      int    `mapstructure:"page_size"`
	Sort          string `mapstructure:"sort"`
	ResyncSpec    string `mapstructure:"resync_spec"`
	MaxImageMB    int64  `mapstructure:"max_image_mb"`
	MaxVideoMB    int64  `mapstructure:"max_video_mb"`
	MaxDocumentMB int64  `mapstructure:"max_document_mb"`
}

// PushConfig 推送通道配置，mode 可选 websocket / redis / kafka
type PushConfig struct {
	Mode    string `mapstructure:"mode"`
	URL     string `mapstructure:"url"`
	Channel string `mapstructure:"channel"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type KafkaConfig struct {
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
}

type KafkaFeedConsumer struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// LogstashConfig 远程日志配置
type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}
