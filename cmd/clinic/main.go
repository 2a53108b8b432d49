package main

import (
	"io"

	appointmentshandler "medibuddy/internal/appointments/handler"
	appointmentsrepo "medibuddy/internal/appointments/repository"
	appointmentsservice "medibuddy/internal/appointments/service"
	appointmentsvalidator "medibuddy/internal/appointments/validator"
	doctorshandler "medibuddy/internal/doctors/handler"
	doctorsrepo "medibuddy/internal/doctors/repository"
	doctorsservice "medibuddy/internal/doctors/service"
	doctorsvalidator "medibuddy/internal/doctors/validator"
	"medibuddy/pkg/app"
	"medibuddy/pkg/auth"
	"medibuddy/pkg/clock"
	"medibuddy/pkg/config"
	"medibuddy/pkg/events"
	"medibuddy/pkg/kafka"
	kafka_config "medibuddy/pkg/kafka/config"
	kafka_middleware "medibuddy/pkg/kafka/middleware"
	"medibuddy/pkg/metrics"
	"medibuddy/pkg/schedule"
)

const ServiceName = "clinic"

func main() {
	cfg := config.Load(ServiceName)
	if cfg.JWTSecret == "" {
		cfg.Log.Fatal("JWT_SECRET must be set")
	}
	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting clinic service")
	collector := metrics.NewCollector(ServiceName)
	publisher, closer := initPublisher(cfg, collector)
	if closer != nil {
		defer closer.Close()
	}

	doctorService, appointmentService := initServices(cfg, publisher, collector)

	serverApp := app.NewApplication(cfg, collector)
	serverApp.SetApp(
		auth.NewSigner(cfg.JWTSecret, cfg.JWTTTL),
		doctorshandler.NewDoctorHandler(doctorService, cfg.Log),
		appointmentshandler.NewAppointmentHandler(appointmentService, cfg.Log),
	)
	serverApp.Run()
}

func initPublisher(cfg *config.Config, collector *metrics.Collector) (events.Publisher, io.Closer) {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Domain events disabled")
		return events.Noop{}, nil
	}

	kafkaCfg, err := kafka_config.Load(cfg.EventsTopic)
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log, kafkaCfg.Topic))
		producer.Use(kafka_middleware.MetricsProducerMiddleware(collector))
	}

	publisher := events.NewKafkaPublisher(producer, ServiceName)
	return publisher, publisher
}

func initServices(cfg *config.Config, publisher events.Publisher, collector *metrics.Collector) (doctorsservice.DoctorService, appointmentsservice.AppointmentService) {
	parser, err := schedule.NewParser(cfg.DefaultSchedule)
	if err != nil {
		cfg.Log.Fatal("Invalid default schedule", "expression", cfg.DefaultSchedule, "error", err)
	}
	clk := clock.System{}

	userRepo := doctorsrepo.NewMongoUserRepository(cfg)
	appointmentRepo := appointmentsrepo.NewMongoAppointmentRepository(cfg)

	doctorService := doctorsservice.NewDoctorService(
		userRepo,
		doctorsvalidator.NewDoctorValidator(cfg.Log),
		parser,
		appointmentRepo,
		publisher,
		clk,
		cfg,
	)
	appointmentService := appointmentsservice.NewAppointmentService(
		appointmentRepo,
		doctorService,
		appointmentsvalidator.NewAppointmentValidator(cfg.Log),
		publisher,
		collector,
		clk,
		cfg,
	)

	cfg.Log.Info("Clinic services initialized", "database", cfg.MongoDatabaseName)
	return doctorService, appointmentService
}
