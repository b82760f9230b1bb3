// Package pg provides a PostgreSQL LISTEN/NOTIFY backend for the broadcast
// layer, useful when a deployment already runs Postgres and wants
// cross-instance session resync without another moving part.
//
// The package wraps the pgx driver with connection retry logic and a
// Broadcaster that satisfies the generic broadcast interfaces for
// synced.Message, so live.Client works unchanged against it.
//
// # Configuration
//
//	type Config struct {
//		ConnectionString string        `env:"PG_CONN_URL,required"`
//		RetryAttempts    int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval    time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"`
//		ChannelPrefix    string        `env:"PG_CHANNEL_PREFIX" envDefault:"livesync"`
//		BufferSize       int           `env:"PG_SUB_BUFFER" envDefault:"64"`
//	}
//
// # Usage
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	bus := pg.NewBroadcaster(pool, cfg)
//	reg := synced.New[Board]("board:42", live.NewBroadcaster(bus))
//
// # Limits
//
// NOTIFY payloads are capped at 8000 bytes by Postgres; Broadcast returns
// ErrPayloadTooLarge for bigger messages. Notification channel names are
// truncated by Postgres at 63 bytes, so keep "<prefix>:<topic>" short.
// Each subscription pins one pooled connection for its lifetime; size the
// pool accordingly.
package pg
