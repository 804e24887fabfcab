package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fuvest-study-service/internal/app"
	"fuvest-study-service/internal/config"
	"fuvest-study-service/internal/domain"
	"fuvest-study-service/internal/infra/memory"
	pgstore "fuvest-study-service/internal/infra/postgres"
	redisstore "fuvest-study-service/internal/infra/redis"
	transport "fuvest-study-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the study service",
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
	sessionTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
	bankTTL := config.TTLDuration(cfg.Bank.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	static := memory.NewStaticBankLoader(sampleBanks())
	var loader memory.BankLoader = static
	var pgLoader *pgstore.BankLoader
	if pool != nil {
		pgLoader = pgstore.NewBankLoader(pool)
		loader = pgLoader
	}

	var banks app.BankRepository
	if redisClient != nil {
		banks = redisstore.NewBankRepository(redisClient, loader, bankTTL)
	} else {
		banks = memory.NewBankRepository(loader, bankTTL)
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, sessionTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	var history app.HistoryRepository = memory.NewHistoryStore()
	var progress app.ProgressRepository = memory.NewProgressStore()
	if pool != nil {
		history = pgstore.NewHistoryRepository(pool)
		progress = pgstore.NewProgressRepository(pool)
	}

	var stats app.StatsRepository = memory.NewStatsStore()
	if redisClient != nil {
		stats = redisstore.NewStatsStore(redisClient)
	}

	years, err := availableYears(ctx, pgLoader, static)
	if err != nil {
		return err
	}
	if len(years) == 0 {
		return fmt.Errorf("no year banks available")
	}

	minYears, maxYears := cfg.YearRange()
	// One generator serves every session; app.NewRand is safe for the
	// concurrent connection handlers.
	rnd := app.NewRand(time.Now().UnixNano())
	composer := app.NewComposer(banks, rnd, minYears, maxYears)
	service := app.NewExamService(composer, banks, sessions, history, stats, progress, years)

	wsHandler := transport.NewWSHandler(service)
	apiHandler := transport.NewAPIHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	apiHandler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting study service on :%s (years %v)", finalPort, years)
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

func availableYears(ctx context.Context, pgLoader *pgstore.BankLoader, static *memory.StaticBankLoader) ([]int, error) {
	if pgLoader != nil {
		return pgLoader.Years(ctx)
	}
	return static.Years(), nil
}

// sampleBanks provides a minimal demo set; production loads per-year banks
// from Postgres.
func sampleBanks() map[int]domain.YearBank {
	return map[int]domain.YearBank{
		2019: {
			Year: 2019,
			Questions: []domain.Question{
				{
					ID:     "fuvest-2019-q1",
					Number: 1,
					Year:   2019,
					Stem:   "A respeito do habeas corpus, assinale a alternativa correta.",
					Options: []domain.Option{
						{Key: "A", Text: "Protege o direito de locomocao."},
						{Key: "B", Text: "Protege o direito de propriedade."},
						{Key: "C", Text: "Substitui o mandado de seguranca."},
					},
					Correct: "A",
				},
				{
					ID:     "fuvest-2019-q2",
					Number: 2,
					Year:   2019,
					Stem:   "Quanto a vigencia da lei no tempo, assinale a alternativa correta.",
					Options: []domain.Option{
						{Key: "A", Text: "A lei revogada sempre se restaura."},
						{Key: "B", Text: "Salvo disposicao contraria, a lei entra em vigor 45 dias apos publicada."},
						{Key: "C", Text: "A lei nova nunca alcanca fatos pendentes."},
					},
					Correct: "B",
				},
			},
		},
		2021: {
			Year: 2021,
			Questions: []domain.Question{
				{
					ID:     "fuvest-2021-q1",
					Number: 1,
					Year:   2021,
					Stem:   "Sobre o controle de constitucionalidade, assinale a alternativa correta.",
					Options: []domain.Option{
						{Key: "A", Text: "So o STF exerce controle difuso."},
						{Key: "B", Text: "Qualquer juiz pode exercer controle difuso."},
						{Key: "C", Text: "O controle concentrado cabe a qualquer tribunal."},
					},
					Correct: "B",
				},
			},
		},
	}
}
