// Package redis provides a Redis Pub/Sub backend for the broadcast layer,
// letting synced sessions on different instances resynchronize through a
// shared Redis deployment.
//
// The package wraps the go-redis client with connection validation, retry
// logic, and a Broadcaster that satisfies the generic broadcast interfaces
// for synced.Message, so live.Client works unchanged against it.
//
// # Configuration
//
// All configuration is handled through the Config struct with environment
// variable mapping:
//
//	type Config struct {
//		ConnectionURL  string        `env:"REDIS_URL,required"`
//		RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
//		ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
//		ChannelPrefix  string        `env:"REDIS_CHANNEL_PREFIX" envDefault:"livesync"`
//		BufferSize     int           `env:"REDIS_SUB_BUFFER" envDefault:"64"`
//	}
//
// Both redis:// and rediss:// (TLS) URL schemes are supported.
//
// # Usage
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	bus := redis.NewBroadcaster(client, cfg)
//	reg := synced.New[Board]("board:42", live.NewBroadcaster(bus))
//
// # Wire format
//
// Messages travel as the JSON encoding of broadcast.Message[synced.Message]
// on one Redis channel per topic ("<prefix>:<topic>"). Payloads cross
// process boundaries as generic JSON values: a struct published on one
// instance arrives as a map[string]any on another, so sync handlers that
// run behind this backend should treat payloads as decoded JSON.
package redis
