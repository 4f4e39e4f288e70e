// ChromaPath - real-time hazard detection and spoken alerts for
// color-vision-impaired riders.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/chromapath/chromapath/internal/config"
	"github.com/chromapath/chromapath/internal/log"
	"github.com/chromapath/chromapath/pkg/alert"
	"github.com/chromapath/chromapath/pkg/camera"
	"github.com/chromapath/chromapath/pkg/colorsample"
	"github.com/chromapath/chromapath/pkg/detect"
	"github.com/chromapath/chromapath/pkg/hazard"
	"github.com/chromapath/chromapath/pkg/location"
	"github.com/chromapath/chromapath/pkg/pipeline"
	"github.com/chromapath/chromapath/pkg/signalstate"
	"github.com/chromapath/chromapath/pkg/telemetry"
	"github.com/chromapath/chromapath/pkg/transport"
	"github.com/chromapath/chromapath/pkg/vision"
	"github.com/chromapath/chromapath/pkg/web"
)

func main() {
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	addr := flag.String("addr", ":8090", "Dashboard listen address")
	visionType := flag.String("vision", "", "Vision type (overrides VISION_TYPE env var)")
	flag.Parse()

	// Missing .env is fine; real deployments set the environment.
	godotenv.Load()

	level := config.Env("LOG_LEVEL", "info")
	if *debug {
		level = "debug"
	}
	log.Init(level)
	logger := log.L()

	vt := config.Env("VISION_TYPE", string(vision.TypeNormal))
	if *visionType != "" {
		vt = *visionType
	}
	profile := vision.NewProfile(vision.ParseType(vt))
	sessionID := uuid.New().String()
	logger.Info("starting chromapath",
		"session_id", sessionID,
		"vision_type", profile.Type,
	)

	cam, err := buildCamera()
	if err != nil {
		logger.Error("camera setup failed", "error", err)
		os.Exit(1)
	}
	defer cam.Close()

	gateway, err := buildGateway()
	if err != nil {
		logger.Error("detection setup failed", "error", err)
		os.Exit(1)
	}
	defer gateway.Close()

	speaker := alert.NewExecSpeaker(config.Env("SPEECH_COMMAND", ""))
	scheduler := alert.NewScheduler(speaker)
	scheduler.SetEnabled(config.EnvBool("ALERTS_ENABLED", true))
	defer scheduler.Close()

	classifier := transport.New(transport.DefaultConfig())

	publisher := buildPublisher(logger)
	defer publisher.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	startLocationFeed(ctx, classifier)

	pipe := pipeline.New(pipeline.Deps{
		Camera:      cam,
		Sampler:     colorsample.New(colorsample.DefaultConfig()),
		Gateway:     gateway,
		Signals:     signalstate.New(),
		Prioritizer: hazard.NewPrioritizer(hazard.DefaultRules()),
		Alerts:      scheduler,
		Classifier:  classifier,
		Publisher:   publisher,
		SessionID:   sessionID,
	}, profile)

	server := web.NewServer(*addr, web.Deps{
		Pipeline:   pipe,
		Alerts:     scheduler,
		Classifier: classifier,
		SessionID:  sessionID,
	})
	server.StartAsync()
	defer server.Shutdown()

	if err := pipe.Start(ctx); err != nil {
		logger.Error("pipeline start failed", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("shutting down")
	pipe.Stop()
}

// buildCamera wires the HTTP still source from the environment.
func buildCamera() (camera.Source, error) {
	cfg := camera.DefaultConfig()
	cfg.URL = config.EnvRequired("CAMERA_URL")
	cfg.Width = config.EnvInt("CAMERA_WIDTH", cfg.Width)
	cfg.Height = config.EnvInt("CAMERA_HEIGHT", cfg.Height)
	return camera.NewHTTPSource(cfg)
}

// buildGateway assembles the backend chain in fallback order: proxy
// first, then a direct detection service, then Google Cloud Vision.
func buildGateway() (*detect.Gateway, error) {
	var backends []detect.Backend

	if url := config.Env("PROXY_URL", ""); url != "" {
		proxy, err := detect.NewProxy(
			detect.WithBaseURL(url),
			detect.WithAPIKey(config.Env("PROXY_API_KEY", "")),
		)
		if err != nil {
			return nil, err
		}
		backends = append(backends, proxy)
	}
	if url := config.Env("DETECT_URL", ""); url != "" {
		direct, err := detect.NewDirect(detect.WithBaseURL(url))
		if err != nil {
			return nil, err
		}
		backends = append(backends, direct)
	}
	if key := config.Env("GOOGLE_API_KEY", ""); key != "" {
		gv, err := detect.NewGoogleVision(context.Background(), detect.WithAPIKey(key))
		if err != nil {
			return nil, err
		}
		backends = append(backends, gv)
	}

	return detect.NewGateway(backends,
		detect.WithMinInterval(config.EnvDuration("DETECT_MIN_INTERVAL", detect.DefaultMinInterval)),
	)
}

// buildPublisher connects the hazard event stream when brokers are
// configured, and stays a no-op otherwise.
func buildPublisher(logger *slog.Logger) telemetry.Publisher {
	cfg := telemetry.KafkaConfigFromEnv()
	if !cfg.Enabled() {
		return telemetry.Nop{}
	}
	p, err := telemetry.NewKafkaPublisher(cfg)
	if err != nil {
		logger.Warn("telemetry disabled", "error", err)
		return telemetry.Nop{}
	}
	return p
}

// startLocationFeed subscribes the classifier to the GPS stream. No
// endpoint means the classifier works from its stale-mode default.
func startLocationFeed(ctx context.Context, classifier *transport.Classifier) {
	url := config.Env("GPS_WS_URL", "")
	if url == "" {
		log.L().Info("no gps feed configured, transport mode defaults apply")
		return
	}

	src, err := location.NewWSSource(url)
	if err != nil {
		log.L().Warn("gps feed setup failed", "error", err)
		return
	}

	go func() {
		defer src.Close()
		src.Subscribe(ctx, func(s location.Sample) {
			classifier.Observe(s.KMH)
		})
	}()
}
