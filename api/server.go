package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	redisAdapter "bidhouse/adapters/redis"
	internalS3 "bidhouse/adapters/s3"
	"bidhouse/adapters/sse"
	"bidhouse/market"
	"bidhouse/models"
)

const defaultHeartbeat = 30 * time.Second

type ServerImpl struct {
	db          *gorm.DB
	market      *market.Service
	sseManager  sse.IConnectionManager[market.BidEvent]
	images      ImageUploader
	revocations redisAdapter.IRevocationStore
	redisClient *redis.Client
	producer    redisAdapter.IProducer[sse.PublishRequest[market.BidEvent]]
	consumer    redisAdapter.IConsumer[sse.PublishRequest[market.BidEvent]]
	logger      *slog.Logger
	heartbeat   time.Duration
	clock       func() time.Time
	closeOnce   sync.Once

	config ServerConfig
}

// Dependencies are the collaborators of a server built without the production backends.
// Nil Revocations disables logout revocation; nil Images disables image upload.
type Dependencies struct {
	DB          *gorm.DB
	Locker      market.Locker
	Revocations redisAdapter.IRevocationStore
	Images      ImageUploader
	Logger      *slog.Logger
	Clock       func() time.Time
}

func NewServer(config ServerConfig) (*ServerImpl, error) {
	const op = "NewServer"
	logger := slog.Default()

	// database
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable", config.DB.User, config.DB.Password, config.DB.Host, config.DB.Port, config.DB.Database)
	namingStrategy := schema.NamingStrategy{}
	if config.DB.Schema != "" {
		dsn += "&search_path=" + config.DB.Schema
		namingStrategy.TablePrefix = config.DB.Schema + "."
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		NamingStrategy: namingStrategy,
	})
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to connect to database, err=%w", op, err)
	}
	if config.DB.AutoMigrate {
		if err := db.AutoMigrate(models.All()...); err != nil {
			return nil, fmt.Errorf("[%s] Fail to migrate database, err=%w", op, err)
		}
	}

	// redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})
	locker := redisAdapter.NewMutexLocker(
		redisClient,
		config.Redis.KeyPrefix+"lock:",
		logger,
		redisAdapter.WithAutoRenewMutexExpiry(config.Redis.LockExpiry),
	)
	revocations := redisAdapter.NewRevocationStore(redisClient, redisAdapter.WithStorePrefix(config.Redis.KeyPrefix+"revoked:"))

	// bid events travel through a redis stream so every instance sees every bid
	producer, err := redisAdapter.NewProducer[sse.PublishRequest[market.BidEvent]](
		redisClient,
		config.Redis.StreamKeys.BidEvents,
		redisAdapter.WithProducerLogger[sse.PublishRequest[market.BidEvent]](logger),
		redisAdapter.WithProducerMaxLen[sse.PublishRequest[market.BidEvent]](10000),
	)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create producer, err=%w", op, err)
	}
	consumer, err := redisAdapter.NewConsumer[sse.PublishRequest[market.BidEvent]](
		redisClient,
		config.Redis.StreamKeys.BidEvents,
		redisAdapter.WithConsumerLogger[sse.PublishRequest[market.BidEvent]](logger),
	)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create consumer, err=%w", op, err)
	}
	sseManager := sse.NewConnectionManager[market.BidEvent](
		sse.WithLogger[market.BidEvent](logger),
		sse.WithPublisher[market.BidEvent](producer),
		sse.WithSubscriber[market.BidEvent](consumer),
	)

	// s3
	var images ImageUploader
	if config.S3.Bucket != "" {
		client, err := internalS3.NewClient(context.Background(), internalS3.ClientConfig{
			Endpoint:        config.S3.Endpoint,
			AccessKeyID:     config.S3.AccessKeyID,
			SecretAccessKey: config.S3.SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to create S3 client, err=%w", op, err)
		}
		store, err := internalS3.NewImageStore(client, config.S3.Bucket, config.S3.PublicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to create image store, err=%w", op, err)
		}
		images = store
	}

	impl := newServerImpl(config, Dependencies{
		DB:          db,
		Locker:      locker,
		Revocations: revocations,
		Images:      images,
		Logger:      logger,
	}, sseManager)
	impl.redisClient = redisClient
	impl.producer = producer
	impl.consumer = consumer
	return impl, nil
}

// NewServerWithDependencies builds a single-instance server whose bid events stay in process.
func NewServerWithDependencies(config ServerConfig, deps Dependencies) *ServerImpl {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sseManager := sse.NewConnectionManager[market.BidEvent](sse.WithLogger[market.BidEvent](logger))
	return newServerImpl(config, deps, sseManager)
}

func newServerImpl(config ServerConfig, deps Dependencies, sseManager sse.IConnectionManager[market.BidEvent]) *ServerImpl {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	if config.S3.MaxImageSize <= 0 {
		config.S3.MaxImageSize = 5 << 20
	}
	return &ServerImpl{
		db: deps.DB,
		market: market.NewService(deps.DB, deps.Locker,
			market.WithLogger(logger),
			market.WithBidPublisher(sseManager),
			market.WithClock(clock),
		),
		sseManager:  sseManager,
		images:      deps.Images,
		revocations: deps.Revocations,
		logger:      logger.With(slog.String("caller", "Server")),
		heartbeat:   defaultHeartbeat,
		clock:       clock,
		config:      config,
	}
}

func (impl *ServerImpl) Start() {
	if impl.consumer != nil {
		impl.consumer.Start()
	}
	if impl.producer != nil {
		impl.producer.Start()
	}
	impl.sseManager.Start()
}

// CloseStreams ends every live event stream so a graceful shutdown is not held up by them.
func (impl *ServerImpl) CloseStreams() {
	impl.sseManager.Done()
}

// Close stops event delivery and releases the backends. It is safe to call more than once.
func (impl *ServerImpl) Close() {
	impl.closeOnce.Do(func() {
		impl.sseManager.Done()
		if impl.consumer != nil {
			impl.consumer.Close()
		}
		if impl.producer != nil {
			impl.producer.Close()
		}
		if impl.redisClient != nil {
			if err := impl.redisClient.Close(); err != nil {
				impl.logger.Warn("Fail to close redis client", slog.Any("error", err))
			}
		}
		if sqlDB, err := impl.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				impl.logger.Warn("Fail to close database", slog.Any("error", err))
			}
		}
	})
}

func (impl *ServerImpl) now() time.Time {
	return impl.clock().UTC()
}

// EnsureAdmin creates the configured administrator when it does not exist yet.
func (impl *ServerImpl) EnsureAdmin(ctx context.Context) error {
	const op = "EnsureAdmin"
	admin := impl.config.Admin
	if admin.Username == "" {
		return nil
	}
	var count int64
	if err := impl.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", admin.Username).Count(&count).Error; err != nil {
		return fmt.Errorf("[%s] Fail to look up administrator, err=%w", op, err)
	}
	if count > 0 {
		return nil
	}
	hash, err := hashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("[%s] %w", op, err)
	}
	user := models.User{Username: admin.Username, PasswordHash: hash, IsAdmin: true}
	if err := impl.db.WithContext(ctx).Create(&user).Error; err != nil {
		return fmt.Errorf("[%s] Fail to create administrator, err=%w", op, err)
	}
	impl.logger.Info("Created administrator", slog.String("username", admin.Username))
	return nil
}

var registerTagNameOnce sync.Once

// useJSONFieldNames makes binding errors report JSON field names.
func useJSONFieldNames() {
	registerTagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
	})
}

// Handler builds the HTTP routes.
func (impl *ServerImpl) Handler() http.Handler {
	useJSONFieldNames()

	router := gin.New()
	router.Use(requestLogger(impl.logger), recoverer(impl.logger))
	router.GET("/healthz", impl.healthz)

	api := router.Group("/api")
	auth := impl.requireAuth

	api.POST("/users/register", impl.register)
	api.POST("/users/login", impl.login)
	api.POST("/users/logout", auth, impl.logout)
	api.GET("/users/me", auth, impl.getMe)
	api.PATCH("/users/me", auth, impl.patchMe)

	api.GET("/categories", impl.listCategories)
	api.GET("/categories/:id", impl.getCategory)
	api.POST("/categories", auth, impl.createCategory)
	api.PUT("/categories/:id", auth, impl.updateCategory)
	api.PATCH("/categories/:id", auth, impl.updateCategory)
	api.DELETE("/categories/:id", auth, impl.deleteCategory)

	api.GET("/auctions", impl.listAuctions)
	api.GET("/auctions/mine", auth, impl.listMyAuctions)
	api.POST("/auctions", auth, impl.createAuction)
	api.GET("/auctions/:id", impl.getAuction)
	api.PUT("/auctions/:id", auth, impl.putAuction)
	api.PATCH("/auctions/:id", auth, impl.patchAuction)
	api.DELETE("/auctions/:id", auth, impl.deleteAuction)
	api.GET("/auctions/:id/events", impl.streamBidEvents)

	api.GET("/auctions/:id/bids", impl.listBids)
	api.POST("/auctions/:id/bids", auth, impl.placeBid)
	api.GET("/auctions/:id/bids/:bidId", impl.getBid)
	api.PUT("/auctions/:id/bids/:bidId", auth, impl.updateBid)
	api.PATCH("/auctions/:id/bids/:bidId", auth, impl.updateBid)
	api.DELETE("/auctions/:id/bids/:bidId", auth, impl.deleteBid)
	api.GET("/bids/mine", auth, impl.listMyBids)

	api.POST("/auctions/:id/ratings", auth, impl.submitRating)
	api.GET("/ratings/mine", auth, impl.listMyRatings)

	api.GET("/auctions/:id/comments", impl.listComments)
	api.POST("/auctions/:id/comments", auth, impl.createComment)
	api.GET("/comments/:id", impl.getComment)
	api.PUT("/comments/:id", auth, impl.updateComment)
	api.PATCH("/comments/:id", auth, impl.updateComment)
	api.DELETE("/comments/:id", auth, impl.deleteComment)

	api.GET("/wallet", auth, impl.getWallet)
	api.POST("/wallet", auth, impl.createWallet)
	api.PATCH("/wallet", auth, impl.updateWallet)

	api.GET("/favorites/mine", auth, impl.listMyFavorites)
	api.POST("/auctions/:id/favorites", auth, impl.createFavorite)
	api.PATCH("/favorites/:id", auth, impl.updateFavorite)
	api.DELETE("/favorites/:id", auth, impl.deleteFavorite)

	api.POST("/images", auth, impl.uploadImage)

	return router
}

func (impl *ServerImpl) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"database": "ok"}
	healthy := true
	if sqlDB, err := impl.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		checks["database"] = "unavailable"
		healthy = false
	}
	if impl.redisClient != nil {
		checks["redis"] = "ok"
		if err := impl.redisClient.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unavailable"
			healthy = false
		}
	}
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, checks)
}
