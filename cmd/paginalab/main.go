package main

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	catalogDomain "github.com/davicafu/paginalab/internal/catalog/domain"
	catalogHttp "github.com/davicafu/paginalab/internal/catalog/infra/inbound/http"
	"github.com/davicafu/paginalab/internal/catalog/infra/outbound/analytics/clickhouse"
	mongoCatalog "github.com/davicafu/paginalab/internal/catalog/infra/outbound/db/mongodb"
	postgresCatalog "github.com/davicafu/paginalab/internal/catalog/infra/outbound/db/postgre"
	sqliteCatalog "github.com/davicafu/paginalab/internal/catalog/infra/outbound/db/sqlite"
	"github.com/davicafu/paginalab/internal/catalog/infra/outbound/filesystem"
	config "github.com/davicafu/paginalab/internal/config"
	infraCache "github.com/davicafu/paginalab/internal/infra/cache"
	infraEvents "github.com/davicafu/paginalab/internal/infra/events"
	listingDomain "github.com/davicafu/paginalab/internal/listing/domain"
	auditEvents "github.com/davicafu/paginalab/internal/listing/infra/inbound/events"
	listingCache "github.com/davicafu/paginalab/internal/listing/infra/outbound/cache"
	"github.com/davicafu/paginalab/pkg/logger"
	"github.com/davicafu/paginalab/pkg/utils"
	sharedBus "github.com/davicafu/paginalab/shared/platform/bus"
	sharedCache "github.com/davicafu/paginalab/shared/platform/cache"

	_ "github.com/jackc/pgx/v5/stdlib"
	// _ "github.com/mattn/go-sqlite3" // requires gcc
	_ "modernc.org/sqlite"
)

// ---------------- Main ----------------
func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.LogLevel) // inicializa zap
	log := logger.Logger()    // obtiene logger estructurado
	defer logger.Sync()       // flush buffers al salir

	ctx := context.Background()

	// ---------------- Catálogo ----------------
	seed := catalogDomain.SeedArticles(cfg.SeedArticles)
	articles := buildArticleFetcher(ctx, cfg, seed, log)

	// ---------------- Cache ----------------
	var cacheInstance sharedCache.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("⚠️ Redis no disponible, cache en memoria", zap.Error(err))
			cacheInstance = infraCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
		} else {
			log.Info("✅ Redis conectado, cache habilitado")
			cacheInstance = infraCache.NewRedisCache(rdb, cfg.CacheTTL)
		}
	} else {
		cacheInstance = infraCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
	}

	// Las páginas del catálogo se sirven con cache-aside por consulta.
	articles = listingCache.NewCachedFetcher[catalogDomain.Article](articles, cacheInstance, log, cfg.CacheTTL)

	// ---------------- Events ----------------
	auditConsumer := auditEvents.NewAuditConsumer(log)

	var publisher sharedBus.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		log.Info("🚀 Usando Kafka como bus de auditoría")

		writer := kafka.NewWriter(kafka.WriterConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopicListing,
		})
		defer writer.Close()
		publisher = infraEvents.NewKafkaPublisher(writer, log)

		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.KafkaBrokers,
			Topic:    cfg.KafkaTopicListing,
			GroupID:  "paginalab-audit",
			MinBytes: 10e3, // 10KB
			MaxBytes: 10e6, // 10MB
		})
		defer reader.Close()

		infraEvents.NewConsumerAdapter(reader, auditConsumer, log).Start(ctx)
	} else {
		log.Info("⚡️ Usando bus de auditoría en memoria (canales de Go)")

		bus := infraEvents.NewInMemoryEventBus(cfg.KafkaTopicListing)
		defer bus.Close()
		publisher = bus

		log.Info("🎧 Iniciando listener en memoria para eventos de listado")
		auditEvents.BackgroundConsumerChan(ctx, bus.Subscribe(32), auditConsumer)
	}

	// ------------- Feed de actividad -------------
	var events listingDomain.Fetcher[catalogDomain.ArticleEvent]
	if cfg.ClickhouseAddr != "" {
		feed, err := clickhouse.NewArticleEventFetcher(cfg.ClickhouseAddr, "paginalab")
		if err != nil {
			log.Warn("⚠️ ClickHouse no disponible, feed de actividad deshabilitado", zap.Error(err))
		} else {
			if err := feed.InitSchema(); err != nil {
				log.Fatal("failed to initialize ClickHouse schema", zap.Error(err))
			}
			if err := feed.LogBatch(ctx, catalogDomain.SeedArticleEvents(seed, 3)); err != nil {
				log.Warn("⚠️ No se pudo sembrar el feed de actividad", zap.Error(err))
			}
			log.Info("✅ ClickHouse conectado, feed de actividad habilitado")
			events = feed
		}
	}

	// ---------------- HTTP ----------------
	articleHandler := catalogHttp.NewArticleHandler(articles, events, publisher, log, cfg.DefaultPageSize)
	router := gin.Default()
	catalogHttp.RegisterArticleRoutes(router, articleHandler)

	router.GET("/api/v1/stats", func(c *gin.Context) {
		utils.SendSuccess(c, http.StatusOK, auditConsumer.Snapshot())
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	log.Info("🚀 Server running",
		zap.String("url", "http://localhost:"+cfg.HTTPPort),
	)
	if err := router.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}

// buildArticleFetcher elige el origen del catálogo: Postgres o MongoDB si
// están configurados, SQLite local en caso contrario y el JSON de disco como
// último recurso. Todos sirven la misma interfaz de listado.
func buildArticleFetcher(ctx context.Context, cfg *config.Config, seed []catalogDomain.Article, log *zap.Logger) listingDomain.Fetcher[catalogDomain.Article] {
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err == nil {
			err = db.PingContext(ctx)
		}
		if err != nil {
			log.Warn("⚠️ Postgres no disponible, probando siguiente origen", zap.Error(err))
		} else {
			if err := postgresCatalog.InitPostgresArticleSchema(db); err != nil {
				log.Fatal("failed to initialize Postgres schema", zap.Error(err))
			}
			if err := postgresCatalog.SeedPostgres(ctx, db, seed); err != nil {
				log.Fatal("failed to seed Postgres", zap.Error(err))
			}
			log.Info("✅ Catálogo servido desde Postgres")
			return postgresCatalog.NewArticleFetcherPostgres(db)
		}
	}

	if cfg.MongoURI != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Warn("⚠️ MongoDB no disponible, probando siguiente origen", zap.Error(err))
		} else {
			fetcher, err := mongoCatalog.NewArticleFetcherMongo(ctx, client, "paginalab")
			if err != nil {
				log.Warn("⚠️ MongoDB no responde, probando siguiente origen", zap.Error(err))
			} else {
				if err := mongoCatalog.SeedMongo(ctx, fetcher, seed); err != nil {
					log.Fatal("failed to seed MongoDB", zap.Error(err))
				}
				log.Info("✅ Catálogo servido desde MongoDB")
				return fetcher
			}
		}
	}

	db, err := sql.Open("sqlite", cfg.SQLitePath)
	if err == nil {
		err = db.PingContext(ctx)
	}
	if err == nil {
		err = sqliteCatalog.InitSQLite(db)
	}
	if err == nil {
		err = sqliteCatalog.SeedSQLite(ctx, db, seed)
	}
	if err != nil {
		log.Warn("⚠️ SQLite no disponible, catálogo en JSON local", zap.Error(err))
		storage := filesystem.NewJSONArticleStorage(cfg.ArticlesJSON)
		if err := storage.Save(ctx, seed); err != nil {
			log.Fatal("failed to write local catalog", zap.Error(err))
		}
		return storage
	}
	log.Info("✅ Catálogo servido desde SQLite", zap.String("path", cfg.SQLitePath))
	return sqliteCatalog.NewArticleFetcherSQLite(db)
}
