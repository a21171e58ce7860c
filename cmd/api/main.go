// Package main (in api-subfolder) provides launch of the HTTP watermarking service
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnendingLoop/ImageWatermarker/internal/appconfig"
	"github.com/UnendingLoop/ImageWatermarker/internal/kafka"
	"github.com/UnendingLoop/ImageWatermarker/internal/mwlogger"
	"github.com/UnendingLoop/ImageWatermarker/internal/repository"
	"github.com/UnendingLoop/ImageWatermarker/internal/service"
	"github.com/UnendingLoop/ImageWatermarker/internal/storage"
	"github.com/UnendingLoop/ImageWatermarker/internal/transport"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/ginext"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	// инициализировать конфиг/ считать энвы
	appConfig := config.New()
	appConfig.EnableEnv("")
	if err := appConfig.LoadEnvFiles("./.env"); err != nil {
		log.Printf("No .env loaded (%v), using process env only", err)
	}
	cfg := appconfig.Load(appConfig)

	// стартуем логгер
	zlog.InitConsole()
	if err := zlog.SetLevel(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	// готовим заранее слушатель прерываний - контекст для всего приложения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// подключиться к хранилищу
	strg, err := storage.NewImgStorage(ctx, cfg, 10, 10*time.Second)
	if err != nil {
		log.Fatalf("Failed to init IMG-storage: %v", err)
	}

	// журнал запросов - в базе, если задан DSN, иначе манифестами в хранилище
	var repo repository.JobRepo
	var dbConn *dbpg.DB
	if cfg.PostgresDSN != "" {
		dbConn, err = repository.ConnectWithRetries(cfg.PostgresDSN, 5, 10*time.Second)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		// накатываем миграцию
		if err := repository.MigrateWithRetries(dbConn.Master, "./migrations", 10, 15*time.Second); err != nil {
			log.Fatalf("Failed to migrate DB: %v", err)
		}
		repo = repository.NewPostgresJobRepo(dbConn)
	} else {
		log.Println("POSTGRES_DSN is empty, keeping job journal in IMG-storage")
		repo = repository.NewStorageJobRepo(strg)
	}

	// события о готовых картинках - только если задан брокер
	var pub service.TaskPublisher = service.NoopPublisher{}
	var producer *wbfkafka.Producer
	if cfg.KafkaBroker != "" {
		// ждем пока кафка раздуплится
		if err := kafka.WaitKafkaReady(ctx, cfg.KafkaBroker, 30, 2*time.Second); err != nil {
			log.Fatalf("Kafka is not ready: %v", err)
		}
		if err := kafka.InitKafkaTopics(ctx, cfg.KafkaBroker, 10*time.Second, cfg.KafkaTopic); err != nil {
			log.Fatalf("Failed to init Kafka topics: %v", err)
		}
		producer = wbfkafka.NewProducer([]string{cfg.KafkaBroker}, cfg.KafkaTopic)
		pub = producer
	} else {
		log.Println("KAFKA_BROKER is empty, completion events disabled")
	}

	// создаем экземпляр сервиса
	svc := service.NewWatermarkService(repo, pub, strg, cfg.Params)
	// cоздаем экземпляр хендлера HTTP
	handlers := transport.NewWatermarkHandler(svc, cfg.MaxUploadMB<<20)
	// сетапим сервер
	engine := ginext.New(cfg.GinMode)
	engine.Use(transport.CORSMiddleware)

	engine.GET("/ping", handlers.SimplePinger)
	engine.POST("/add_watermark", handlers.AddWatermark) // наложение ватермарка
	engine.OPTIONS("/add_watermark", handlers.Preflight) // CORS preflight
	engine.GET("/jobs", handlers.GetAllJobs)             // журнал запросов с пагинацией и сортировкой
	engine.GET("/jobs/:id/result", handlers.LoadResult)  // повторная загрузка результата

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mwlogger.NewMWLogger(engine),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Server launch
	go func() {
		log.Printf("Server running on http://localhost%s\n", srv.Addr)
		err := srv.ListenAndServe()
		if err != nil {
			switch {
			case errors.Is(err, http.ErrServerClosed):
				log.Println("Server gracefully stopping...")
			default:
				log.Printf("Server stopped: %v", err)
				stop()
			}
		}
	}()

	// ждем отмены контекста для запуска грейсфул закрытия сервера, бд и кафки
	<-ctx.Done()

	shutdown(srv, producer, dbConn)
	log.Println("Exiting app...")
}

func shutdown(srv *http.Server, producer *wbfkafka.Producer, dbConn *dbpg.DB) {
	log.Println("Interrupt received!!! Starting shutdown sequence...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("Failed to shutdown HTTP-server correctly:", err)
	}
	log.Println("HTTP-server stopped.")

	// Closing Kafka connection:
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Println("Failed to close Kafka-writer:", err)
		}
		log.Println("Kafka-producer connection closed.")
	}

	// Closing DB connection
	if dbConn != nil {
		if err := dbConn.Master.Close(); err != nil {
			log.Println("Failed to close DB-conn correctly:", err)
			return
		}
		log.Println("DBconn closed")
	}
}
