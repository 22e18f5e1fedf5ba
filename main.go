package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk"
	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"focalAPI/handlers"
	"focalAPI/internal/notification"
	"focalAPI/internal/timer"
	"focalAPI/middleware"
	"focalAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	userService         *services.UserService
	streakService       *services.StreakService
	focusService        *services.FocusService
	northStarService    *services.NorthStarService
	calendarService     *services.CalendarService
	laterService        *services.LaterService
	timerService        *services.TimerService
	timerStore          *timer.Store
	analyticsService    *services.AnalyticsService
	notificationService *services.NotificationService
	paddleService       *services.PaddleService
	fcmService          *notification.FCMService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to NeonDB")

	userService = services.NewUserService(dbPool)
	streakService = services.NewStreakService(dbPool)
	focusService = services.NewFocusService(dbPool, streakService)
	northStarService = services.NewNorthStarService(dbPool)
	calendarService = services.NewCalendarService(dbPool)
	laterService = services.NewLaterService(dbPool, focusService)
	analyticsService = services.NewAnalyticsService(dbPool)
	notificationService = services.NewNotificationService(dbPool)

	timerService = services.NewTimerService(dbPool)
	timerStore = timer.NewStore(
		timerService.BreakConfig,
		func(st timer.State) {
			log.Printf("Timer: auto-started %s timer for %s", st.TimerType, st.Key)
		},
		timerService.RecordFinish,
	)
	timerService.SetStore(timerStore)

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.Dispatcher().SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	paddleAPIKey := os.Getenv("PADDLE_API_KEY")
	if paddleAPIKey == "" {
		log.Println("Warning: PADDLE_API_KEY not set, premium upgrades disabled")
	} else {
		paddleClient, err := paddle.New(paddleAPIKey)
		if err != nil {
			log.Printf("Warning: Could not initialize Paddle: %v", err)
		} else {
			paddleService = services.NewPaddleService(paddleClient, userService)
			log.Println("Paddle initialized successfully")
		}
	}

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()
	defer timerStore.Close()
	defer notificationService.Dispatcher().Stop()

	userHandler := handlers.NewUserHandler(userService)
	focusHandler := handlers.NewFocusHandler(focusService, streakService)
	northStarHandler := handlers.NewNorthStarHandler(northStarService)
	calendarHandler := handlers.NewCalendarHandler(calendarService)
	laterHandler := handlers.NewLaterHandler(laterService)
	timerHandler := handlers.NewTimerHandler(timerService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	webhookHandler := handlers.NewWebhookHandler(userService)

	r := mux.NewRouter()

	standardRouter := r.PathPrefix("/").Subrouter()

	go middleware.CleanupVisitors()

	standardRouter.Use(middleware.RateLimitMiddleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	standardRouter.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "focal-api"}`))
	}).Methods("GET")

	standardRouter.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	api := standardRouter.PathPrefix("/api/v1").Subrouter()

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/update-profile", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user/delete-account", userHandler.DeleteAccount).Methods("DELETE")

	protected.HandleFunc("/focuses", focusHandler.CreateFocus).Methods("POST")
	protected.HandleFunc("/focuses", focusHandler.GetFocusesByDate).Methods("GET")
	protected.HandleFunc("/focuses/{id}", focusHandler.GetFocus).Methods("GET")
	protected.HandleFunc("/focuses/{id}", focusHandler.UpdateFocus).Methods("PUT")
	protected.HandleFunc("/focuses/{id}", focusHandler.CancelFocus).Methods("DELETE")
	protected.HandleFunc("/focuses/{id}/complete", focusHandler.CompleteFocus).Methods("POST")
	protected.HandleFunc("/focuses/{id}/checkpoints", focusHandler.AddCheckpoint).Methods("POST")
	protected.HandleFunc("/checkpoints/{checkpointId}/toggle", focusHandler.ToggleCheckpoint).Methods("POST")

	protected.HandleFunc("/streak", focusHandler.GetStreak).Methods("GET")

	protected.HandleFunc("/north-stars", northStarHandler.CreateNorthStar).Methods("POST")
	protected.HandleFunc("/north-stars", northStarHandler.GetNorthStars).Methods("GET")
	protected.HandleFunc("/north-stars/reorder", northStarHandler.ReorderNorthStars).Methods("PUT")
	protected.HandleFunc("/north-stars/{id}", northStarHandler.UpdateNorthStar).Methods("PUT")
	protected.HandleFunc("/north-stars/{id}", northStarHandler.DeleteNorthStar).Methods("DELETE")
	protected.HandleFunc("/north-stars/{id}/complete", northStarHandler.CompleteNorthStar).Methods("POST")
	protected.HandleFunc("/north-stars/{id}/archive", northStarHandler.ArchiveNorthStar).Methods("POST")

	protected.HandleFunc("/calendar/events", calendarHandler.CreateEvent).Methods("POST")
	protected.HandleFunc("/calendar/events", calendarHandler.GetMonth).Methods("GET")
	protected.HandleFunc("/calendar/events/day", calendarHandler.GetDay).Methods("GET")
	protected.HandleFunc("/calendar/events/{id}", calendarHandler.UpdateEvent).Methods("PUT")
	protected.HandleFunc("/calendar/events/{id}", calendarHandler.DeleteEvent).Methods("DELETE")
	protected.HandleFunc("/calendar/events/{id}/toggle", calendarHandler.ToggleEventCompleted).Methods("POST")

	protected.HandleFunc("/later", laterHandler.CreateItem).Methods("POST")
	protected.HandleFunc("/later", laterHandler.GetItems).Methods("GET")
	protected.HandleFunc("/later/{id}/process", laterHandler.ProcessItem).Methods("POST")

	protected.HandleFunc("/timer", timerHandler.GetTimer).Methods("GET")
	protected.HandleFunc("/timer/start", timerHandler.StartTimer).Methods("POST")
	protected.HandleFunc("/timer/pause", timerHandler.PauseTimer).Methods("POST")
	protected.HandleFunc("/timer/resume", timerHandler.ResumeTimer).Methods("POST")
	protected.HandleFunc("/timer/stop", timerHandler.StopTimer).Methods("POST")
	protected.HandleFunc("/timer/break", timerHandler.StartBreak).Methods("POST")
	protected.HandleFunc("/timer/history", timerHandler.GetHistory).Methods("GET")
	protected.HandleFunc("/timer/preferences", timerHandler.GetPreferences).Methods("GET")
	protected.HandleFunc("/timer/preferences", timerHandler.UpdatePreferences).Methods("PUT")

	protected.HandleFunc("/analytics/stats", analyticsHandler.GetProductivityStats).Methods("GET")
	protected.HandleFunc("/analytics/daily", analyticsHandler.GetDailySeries).Methods("GET")
	protected.HandleFunc("/analytics/weekly", analyticsHandler.GetWeeklySummary).Methods("GET")

	protected.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/read-all", notificationHandler.MarkAllRead).Methods("PUT")
	protected.HandleFunc("/notifications/preferences", notificationHandler.GetPreferences).Methods("GET")
	protected.HandleFunc("/notifications/preferences", notificationHandler.UpdatePreferences).Methods("PUT")
	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")
	protected.HandleFunc("/notifications/unregister-device", notificationHandler.UnregisterDevice).Methods("DELETE")
	protected.HandleFunc("/notifications/{id}/read", notificationHandler.MarkRead).Methods("PUT")

	if paddleService != nil {
		paddleHandler := handlers.NewPaddleHandler(paddleService)
		protected.HandleFunc("/premium/prices", paddleHandler.GetPrices).Methods("GET")
		protected.HandleFunc("/premium/transaction", paddleHandler.CreateTransaction).Methods("POST")
		standardRouter.HandleFunc("/webhooks/paddle", paddleHandler.PaddleWebhookHandler).Methods("POST")
	}

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
