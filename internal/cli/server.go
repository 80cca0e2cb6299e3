package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studypal-quiz-service/internal/app"
	"studypal-quiz-service/internal/config"
	"studypal-quiz-service/internal/domain"
	"studypal-quiz-service/internal/infra/memory"
	pgloader "studypal-quiz-service/internal/infra/postgres"
	infraredis "studypal-quiz-service/internal/infra/redis"
	transport "studypal-quiz-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleTopics())
	if pool != nil {
		loader = pgloader.NewQuestionLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var questions app.QuestionRepository
	if redisClient != nil {
		questions = infraredis.NewQuestionRepository(redisClient, loader, quizTTL)
	} else {
		questions = memory.NewQuestionRepository(loader, quizTTL)
	}

	attemptTTL := config.TTLDuration(cfg.Attempt.TTL, 24*time.Hour)
	var snapshots app.SnapshotStore
	if redisClient != nil {
		snapshots = infraredis.NewAttemptStore(redisClient, attemptTTL)
	} else {
		snapshots = memory.NewAttemptStore()
	}

	boardTTL := config.TTLDuration(cfg.Board.TTL, 7*24*time.Hour)
	var boards app.BoardStore
	if redisClient != nil {
		boards = infraredis.NewBoardStore(redisClient, boardTTL)
	} else {
		boards = memory.NewBoardStore()
	}

	policy := app.PolicyFromName(cfg.Quiz.UnlockPolicy)
	service := app.NewQuizService(questions, snapshots, boards, policy)
	wsHandler := transport.NewWSHandler(service)
	topicsHandler := transport.NewTopicsHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/topics", topicsHandler.ServeTopics)
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s (unlock policy: %s)", finalPort, policy.Name())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleTopics provides a minimal demo question set; in production the AI
// pipeline writes generated sets to Postgres and this loader is swapped out.
func sampleTopics() map[string][]domain.Question {
	return map[string][]domain.Question{
		"photosynthesis": {
			{
				ID:            "q1",
				Text:          "Where does the light-dependent reaction take place?",
				Options:       []string{"Stroma", "Thylakoid membrane", "Cell wall", "Mitochondria"},
				CorrectAnswer: 1,
				Explanation:   "The light-dependent reactions occur in the thylakoid membranes of the chloroplast.",
				SourcePage:    12,
			},
			{
				ID:            "q2",
				Text:          "Which gas is consumed during the Calvin cycle?",
				Options:       []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Hydrogen"},
				CorrectAnswer: 2,
				Explanation:   "The Calvin cycle fixes atmospheric CO2 into sugar.",
				SourcePage:    14,
			},
		},
	}
}
