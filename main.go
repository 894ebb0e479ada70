package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"metaCoreAPI/handlers"
	"metaCoreAPI/internal/authz"
	"metaCoreAPI/internal/notification"
	"metaCoreAPI/internal/workers"
	"metaCoreAPI/middleware"
	"metaCoreAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	profileService      *services.ProfileService
	challengeService    *services.ChallengeService
	cartService         *services.CartService
	postService         *services.PostService
	productService      *services.ProductService
	notificationService *services.NotificationService
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

	log.Println("Successfully connected to database")

	adminPolicy := authz.NewPolicy(os.Getenv("ADMIN_EMAILS"))

	notificationService = services.NewNotificationService(dbPool)
	profileService = services.NewProfileService(dbPool, notificationService)
	challengeService = services.NewChallengeService(dbPool, notificationService, adminPolicy)
	cartService = services.NewCartService(dbPool)
	postService = services.NewPostService(dbPool, notificationService)
	productService = services.NewProductService(dbPool)

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	profileHandler := handlers.NewProfileHandler(profileService)
	challengeHandler := handlers.NewChallengeHandler(challengeService)
	cartHandler := handlers.NewCartHandler(cartService)
	postHandler := handlers.NewPostHandler(postService)
	productHandler := handlers.NewProductHandler(productService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	webhookHandler := handlers.NewWebhookHandler(profileService)
	uploadHandler := handlers.NewUploadHandler("./assets", "/assets")

	// Background goroutines stop when this context is cancelled on shutdown
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	workers.StartReminderWorker(workerCtx, dbPool, notificationService)
	workers.StartTrendingWorker(workerCtx, dbPool, notificationService)

	r := mux.NewRouter()

	go middleware.StartVisitorJanitor(workerCtx)

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	assetsDir := "./assets"
	fs := http.FileServer(http.Dir(assetsDir))
	r.PathPrefix("/assets/").Handler(http.StripPrefix("/assets/", fs))
	log.Printf("Serving static files from %s at /assets/", assetsDir)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
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
		w.Write([]byte(`{"status": "healthy", "service": "metacore-api"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes: browsing challenges and the shop works without an
	// account, but a valid token personalizes the response (is_joined)
	public := api.PathPrefix("").Subrouter()
	public.Use(middleware.OptionalAuthMiddleware)

	public.HandleFunc("/challenges", challengeHandler.ListChallenges).Methods("GET")
	public.HandleFunc("/challenges/{id}", challengeHandler.GetChallenge).Methods("GET")
	public.HandleFunc("/products", productHandler.ListProducts).Methods("GET")
	public.HandleFunc("/products/{id}", productHandler.GetProduct).Methods("GET")
	public.HandleFunc("/products/{id}/click", productHandler.TrackClick).Methods("POST")
	public.HandleFunc("/waitlist", productHandler.JoinWaitlist).Methods("POST")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/challenges", challengeHandler.CreateChallenge).Methods("POST")
	protected.HandleFunc("/challenges/join", challengeHandler.JoinChallenge).Methods("POST")
	protected.HandleFunc("/challenges/check-in", challengeHandler.RecordCheckIn).Methods("POST")
	protected.HandleFunc("/participations/{id}/check-ins", challengeHandler.ListCheckIns).Methods("GET")
	protected.HandleFunc("/user/challenges", challengeHandler.ListUserChallenges).Methods("GET")

	protected.HandleFunc("/user", profileHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/update-profile", profileHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user/delete-account", profileHandler.DeleteAccount).Methods("DELETE")
	protected.HandleFunc("/profiles/{id}", profileHandler.GetProfileByID).Methods("GET")
	protected.HandleFunc("/profiles/{id}/follow", profileHandler.Follow).Methods("POST")
	protected.HandleFunc("/profiles/{id}/follow", profileHandler.Unfollow).Methods("DELETE")

	protected.HandleFunc("/feed", postHandler.GetFeed).Methods("GET")
	protected.HandleFunc("/posts", postHandler.CreatePost).Methods("POST")
	protected.HandleFunc("/posts/{id}/like", postHandler.LikePost).Methods("POST")
	protected.HandleFunc("/posts/{id}/like", postHandler.UnlikePost).Methods("DELETE")
	protected.HandleFunc("/posts/{id}/comments", postHandler.AddComment).Methods("POST")
	protected.HandleFunc("/posts/{id}/comments", postHandler.ListComments).Methods("GET")

	protected.HandleFunc("/cart", cartHandler.GetCart).Methods("GET")
	protected.HandleFunc("/cart", cartHandler.AddToCart).Methods("POST")
	protected.HandleFunc("/cart/{productId}", cartHandler.RemoveFromCart).Methods("DELETE")
	protected.HandleFunc("/cart/reconcile", cartHandler.Reconcile).Methods("POST")
	protected.HandleFunc("/wishlist", cartHandler.GetWishlist).Methods("GET")
	protected.HandleFunc("/wishlist", cartHandler.AddToWishlist).Methods("POST")
	protected.HandleFunc("/wishlist/{productId}", cartHandler.RemoveFromWishlist).Methods("DELETE")

	protected.HandleFunc("/checkout", productHandler.Checkout).Methods("POST")
	protected.HandleFunc("/orders", productHandler.ListOrders).Methods("GET")

	protected.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/unread-count", notificationHandler.GetUnreadCount).Methods("GET")
	protected.HandleFunc("/notifications/{id}/read", notificationHandler.MarkAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/read-all", notificationHandler.MarkAllAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")

	protected.HandleFunc("/upload", uploadHandler.Upload).Methods("POST")

	// CORS configuration
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

	// Graceful shutdown
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
