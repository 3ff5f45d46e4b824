// internal/logger/logger.go
//
// Process logger for the forms service.
//
// Context
// -------
// Everything the service logs (boot steps, form changes, submissions,
// auto-save failures, webhook results) goes to one JSON file per day at
// `<root>/logs/YYYY-MM-DD.log`, rotated by Lumberjack.  An interactive run
// also prints the same lines to stdout in console format.
//
//	log, err := logger.New(cfg.Paths.Root, runningInTTY(), cfg.Debug)
//	log.Infow("forms service online", "addr", cfg.HTTP.ListenAddr)
//
// Code inside a request logs through FromContext (context.go).  Timers and
// workers that run outside a request use zap.S(), which New replaces.
//
// Notes
// -----
// • Every line carries `"service":"adept-forms"` so shared log stores can
//   filter on it.
// • Zap's own write errors land in the same file.
// • Oxford commas, two spaces after periods.
package logger

import (
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName is attached to every log line.
const ServiceName = "adept-forms"

// Rotation limits for the daily file.
const (
	maxSizeMB  = 50
	maxBackups = 7
	maxAgeDays = 14
)

// New builds the process logger, installs it with zap.ReplaceGlobals, and
// returns it.  debug lowers the level from INFO to DEBUG on every output.
func New(rootDir string, tee, debug bool) (*zap.SugaredLogger, error) {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	sink, err := dailyFile(filepath.Join(rootDir, "logs"), time.Now())
	if err != nil {
		return nil, err
	}

	enc := encoderConfig()
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(enc), sink, level),
	}
	if tee {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(os.Stdout), level))
	}

	z := zap.New(zapcore.NewTee(cores...),
		zap.ErrorOutput(sink),
		zap.Fields(zap.String("service", ServiceName)),
	)
	zap.ReplaceGlobals(z)

	s := z.Sugar()
	s.Infow("logger online", "tee", tee, "level", level.String())
	return s, nil
}

// dailyFile opens the rotating file for day under dir, creating dir.
func dailyFile(dir string, day time.Time) (zapcore.WriteSyncer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(dir, day.Format("2006-01-02")+".log"),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}), nil
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:      "ts",
		LevelKey:     "level",
		MessageKey:   "msg",
		CallerKey:    "caller",
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeLevel:  zapcore.LowercaseLevelEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}
}
