package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config configura el logger del servidor de autorización.
type Config struct {
	// Env selecciona el formato de salida.
	// "prod": JSON en una línea, apto para agregadores.
	// Cualquier otro valor: consola legible con colores.
	// Default: "dev".
	Env string

	// Level es el nivel mínimo: debug | info | warn | error | dpanic | panic | fatal.
	// Valores desconocidos caen en info.
	// Default: "info".
	Level string

	// Issuer se agrega como campo fijo "issuer" en cada línea, así los logs
	// de varias instancias detrás del mismo agregador se pueden separar.
	// Vacío: no se agrega.
	Issuer string
}

func (c Config) prod() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "prod")
}

// build arma el logger. Nunca devuelve nil: si zap no puede abrir stderr
// se usa un Nop para que el servidor arranque igual.
func build(cfg Config) *zap.Logger {
	var zcfg zap.Config
	opts := []zap.Option{
		// Sin AddCallerSkip: los callers usan *zap.Logger directo, no wrappers.
		zap.AddCaller(),
	}

	if cfg.prod() {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		// Stacktrace solo en error o superior; un rechazo de grant es warn.
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zcfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		// En dev el stacktrace de cada warn tapa el request log.
		zcfg.DisableStacktrace = true
	}
	zcfg.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	zcfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	l, err := zcfg.Build(opts...)
	if err != nil {
		return zap.NewNop()
	}
	if cfg.Issuer != "" {
		l = l.With(zap.String("issuer", cfg.Issuer))
	}
	return l
}

// parseLevel traduce el nivel textual; acepta "warning" como alias.
func parseLevel(lvl string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "dpanic":
		return zapcore.DPanicLevel
	case "panic":
		return zapcore.PanicLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
