package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"carebook-backend/docs"
	"carebook-backend/internal/attendance"
	"carebook-backend/internal/classroom"
	"carebook-backend/internal/dailyrecord"
	"carebook-backend/internal/history"
	"carebook-backend/internal/platform/auth"
	"carebook-backend/internal/platform/db"
	"carebook-backend/internal/platform/requestid"
	"carebook-backend/internal/registration"
	"carebook-backend/internal/review"
)

// ストレージごとの実装をまとめたもの
type stores struct {
	records    dailyrecord.Repository
	attendance attendance.Repository
	classes    classroom.Repository
	accounts   auth.AccountStore
}

func openStores(cfg *db.Config, loc *time.Location) (stores, *sql.DB, error) {
	if cfg.Storage == db.StorageMemory {
		log.Printf("[WARN] storage=memory: data is lost on restart")
		return stores{
			records:    dailyrecord.NewMemoryStore(loc),
			attendance: attendance.NewMemoryStore(),
			classes:    classroom.NewMemoryStore(),
			accounts:   auth.NewMemoryStore(),
		}, nil, nil
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		return stores{}, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.EnsureSchema(ctx, conn); err != nil {
		conn.Close()
		return stores{}, nil, fmt.Errorf("schema: %w", err)
	}
	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	return stores{
		records:    dailyrecord.NewSQLStore(conn, loc),
		attendance: attendance.NewStore(conn),
		classes:    classroom.NewStore(conn),
		accounts:   auth.NewStore(conn),
	}, conn, nil
}

func main() {
	// 設定読み込み
	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatal(err)
	}
	mode := cfg.Mode
	loc := cfg.Location()
	log.Printf("[INFO] mode:%s storage:%s tz:%s", mode, cfg.Storage, loc)

	st, conn, err := openStores(cfg, loc)
	if err != nil {
		log.Fatal(err)
	}
	if conn != nil {
		defer conn.Close()
	}

	// サービス
	recordSvc := dailyrecord.NewService(st.records, loc)
	attendanceSvc := attendance.NewService(st.attendance, loc)
	classSvc := classroom.NewService(st.classes, loc)
	registrationSvc := registration.NewService(registration.Deps{
		Gate:       attendanceSvc,
		Records:    recordSvc,
		Roster:     classSvc,
		Calendar:   classSvc,
		Attendance: attendanceSvc,
	}, loc)
	historySvc := history.NewService(st.records, loc)
	reviewSvc := review.NewService(st.records)
	authSvc := auth.NewService(st.accounts, []byte(cfg.Auth.JWTSecret), cfg.TokenTTL())

	admin := cfg.Auth.BootstrapAdmin
	if err := authSvc.EnsureAccount(context.Background(), admin.ID, admin.Password, auth.RoleAdmin); err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	if mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(requestid.Middleware(), gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if mode == "dev" {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestid.Header},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "Location", requestid.Header},
			AllowMethods:     []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
		docs.SwaggerInfo.Version = cfg.Version
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dailyrecord.ErrorBody(dailyrecord.CodeNotFound, "no such endpoint"))
	})

	// /api/v1
	api := r.Group("/api/v1")
	authed := api.Group("", auth.RequireAuth([]byte(cfg.Auth.JWTSecret)))
	staff := authed.Group("", auth.RequireRole(auth.RoleStaff, auth.RoleAdmin))
	read := authed.Group("", auth.RequireRole(auth.RoleGuardian, auth.RoleStaff, auth.RoleAdmin))
	adminOnly := authed.Group("", auth.RequireRole(auth.RoleAdmin))

	auth.RegisterRoutes(api, adminOnly, authSvc)
	dailyrecord.RegisterRoutes(staff, read, recordSvc)
	attendance.RegisterRoutes(staff, attendanceSvc)
	classroom.RegisterRoutes(staff, adminOnly, classSvc)
	registration.RegisterRoutes(staff, registrationSvc)
	history.RegisterRoutes(read, historySvc)
	review.RegisterRoutes(read, reviewSvc)

	var sched *registration.Scheduler
	if cfg.Scheduler.Enabled {
		sched = registration.NewScheduler(registrationSvc, classSvc, cfg.Scheduler.StaffID)
		if err := sched.Start(cfg.Scheduler.Spec); err != nil {
			log.Fatalf("scheduler: %v", err)
		}
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		var err error
		if cfg.Certificate.Cert != "" && cfg.Certificate.Key != "" {
			// TLS設定（dev/release で置き場所が違う）
			certFile := fmt.Sprintf("config/tls/%s/%s", mode, cfg.Certificate.Cert)
			keyFile := fmt.Sprintf("config/tls/%s/%s", mode, cfg.Certificate.Key)
			log.Printf("[INFO] listening on https://%s", cfg.Server.Addr)
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			log.Printf("[WARN] no certificate configured; listening on http://%s", cfg.Server.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("[INFO] shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if sched != nil {
		select {
		case <-sched.Stop().Done():
		case <-ctx.Done():
			log.Printf("[WARN] scheduled registration still running at shutdown")
		}
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
