package server

import (
	"github.com/JuanmaOrdPer/AthCyl/internal/auth"
	"github.com/JuanmaOrdPer/AthCyl/internal/config"
	"github.com/JuanmaOrdPer/AthCyl/internal/goal"
	"github.com/JuanmaOrdPer/AthCyl/internal/stats"
	"github.com/JuanmaOrdPer/AthCyl/internal/training"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App   *fiber.App
	Cfg   config.Config
	DB    *pgxpool.Pool
	Redis *redis.Client
	Stats *stats.Engine
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024, // activity files run to tens of MB
	})
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:   app,
		Cfg:   cfg,
		DB:    db,
		Redis: redisClient,
		Stats: stats.NewEngine(db, redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	trainingSvc := training.NewService(s.DB, s.Stats)
	training.RegisterRoutes(s.App.Group("/trainings"), trainingSvc, jwtMiddleware, s.Cfg.DefaultWeightKg)
	stats.RegisterRoutes(s.App.Group("/stats"), s.Stats, jwtMiddleware)
	goal.RegisterRoutes(s.App.Group("/goals"), goal.NewService(s.DB), jwtMiddleware)
}
