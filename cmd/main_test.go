package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/claimscore/internal/adapters/http/api"
	app "github.com/okian/claimscore/internal/app"
	"github.com/okian/claimscore/internal/config"
	"github.com/okian/claimscore/internal/domain/calibration"
	"github.com/okian/claimscore/internal/domain/feature"
	"github.com/okian/claimscore/internal/engine"
	"github.com/okian/claimscore/internal/model"
	"github.com/okian/claimscore/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

const testSchemaJSON = `{
	"features": [
		{"name": "claim_amount", "type": "NUMERIC", "index": 0},
		{"name": "provider_state", "type": "CATEGORICAL", "index": 1,
			"mapping": {"CA": 0, "NY": 1, "UNKNOWN": 2}}
	]
}`

const testCalibrationJSON = `{
	"type": "PLATT_SCALING",
	"parameters": {"a": -1.5, "b": 0.3}
}`

// writeArtifacts lays out schema and calibration files in a temp dir.
func writeArtifacts(t *testing.T) (metadataPath, calibrationPath string) {
	t.Helper()
	dir := t.TempDir()
	metadataPath = filepath.Join(dir, "feature_metadata.json")
	calibrationPath = filepath.Join(dir, "calibration_params.json")
	if err := os.WriteFile(metadataPath, []byte(testSchemaJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(calibrationPath, []byte(testCalibrationJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	return metadataPath, calibrationPath
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("CLAIMSCORE_ADDR", ":8080")
			_ = os.Setenv("CLAIMSCORE_MODEL_TTL_SECONDS", "60")
			_ = os.Setenv("CLAIMSCORE_MAX_BATCH_SIZE", "32")
			defer func() {
				_ = os.Unsetenv("CLAIMSCORE_ADDR")
				_ = os.Unsetenv("CLAIMSCORE_MODEL_TTL_SECONDS")
				_ = os.Unsetenv("CLAIMSCORE_MAX_BATCH_SIZE")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ModelTTLSeconds, convey.ShouldEqual, 60)
				convey.So(cfg.MaxBatchSize, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			convey.Convey("Then metrics manager should be creatable", func() {
				registry := prometheus.NewRegistry()
				manager := metrics.NewManager(metrics.WithPrometheusRegistry(registry))
				convey.So(manager, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		metadataPath, calibrationPath := writeArtifacts(t)

		convey.Convey("When loading startup artifacts", func() {
			schema, err := feature.LoadSchema(metadataPath)
			convey.So(err, convey.ShouldBeNil)
			convey.So(schema.Count(), convey.ShouldEqual, 2)

			calCfg, err := calibration.LoadConfig(calibrationPath)
			convey.So(err, convey.ShouldBeNil)

			calibrator, err := calCfg.Calibrator()
			convey.So(err, convey.ShouldBeNil)
			convey.So(calibrator, convey.ShouldNotBeNil)
		})

		convey.Convey("When testing the model metrics updater", func() {
			schema, err := feature.LoadSchema(metadataPath)
			convey.So(err, convey.ShouldBeNil)

			cache := model.NewCache(engine.LoadLinear, filepath.Join(t.TempDir(), "absent.json"))
			svc := app.New(feature.NewEncoder(schema), calibration.Identity(), cache)
			defer func() { _ = svc.Close() }()

			convey.Convey("Then it should run until the context expires", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startModelMetricsUpdater(ctx, svc)
				}, convey.ShouldNotPanic)
			})
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given main application integration", t, func() {
		metadataPath, calibrationPath := writeArtifacts(t)

		_ = os.Setenv("CLAIMSCORE_ADDR", ":8080")
		_ = os.Setenv("CLAIMSCORE_METADATA_PATH", metadataPath)
		_ = os.Setenv("CLAIMSCORE_CALIBRATION_PATH", calibrationPath)
		defer func() {
			_ = os.Unsetenv("CLAIMSCORE_ADDR")
			_ = os.Unsetenv("CLAIMSCORE_METADATA_PATH")
			_ = os.Unsetenv("CLAIMSCORE_CALIBRATION_PATH")
		}()

		convey.Convey("Then all components should work together", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg, convey.ShouldNotBeNil)

			schema, err := feature.LoadSchema(cfg.MetadataPath)
			convey.So(err, convey.ShouldBeNil)

			calCfg, err := calibration.LoadConfig(cfg.CalibrationPath)
			convey.So(err, convey.ShouldBeNil)
			calibrator, err := calCfg.Calibrator()
			convey.So(err, convey.ShouldBeNil)

			cache := model.NewCache(engine.LoadLinear, cfg.ModelPath,
				model.WithTTL(time.Duration(cfg.ModelTTLSeconds)*time.Second),
			)
			svc := app.New(
				feature.NewEncoder(schema),
				calibrator,
				cache,
				app.WithMaxBatchSize(cfg.MaxBatchSize),
			)
			defer func() { _ = svc.Close() }()

			server := api.NewServer(svc)
			convey.So(server, convey.ShouldNotBeNil)

			mux := http.NewServeMux()
			server.Register(ctx, mux)
			convey.So(mux, convey.ShouldNotBeNil)
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given main application error handling", t, func() {
		convey.Convey("When testing invalid configuration", func() {
			_ = os.Setenv("CLAIMSCORE_ADDR", "")
			defer func() { _ = os.Unsetenv("CLAIMSCORE_ADDR") }()

			convey.Convey("Then configuration loading should fail", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When startup artifacts are missing", func() {
			convey.Convey("Then schema loading should fail", func() {
				_, err := feature.LoadSchema("/non/existent/feature_metadata.json")
				convey.So(err, convey.ShouldNotBeNil)
			})

			convey.Convey("And calibration loading should fail", func() {
				_, err := calibration.LoadConfig("/non/existent/calibration_params.json")
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
