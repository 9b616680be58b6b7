package logger

import (
	"strconv"

	"go.uber.org/zap"
)

// Field es un alias para no importar zap desde los callers.
type Field = zap.Field

// ---------------------------------------------------------------------------------
// HTTP
// ---------------------------------------------------------------------------------

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }

// DurationMs registra la latencia en milisegundos.
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }

// ---------------------------------------------------------------------------------
// OAuth
// ---------------------------------------------------------------------------------

// ClientID es el identificador público del cliente (no el id de fila).
func ClientID(v string) zap.Field { return zap.String("client_id", v) }

// ClientRowID es el id interno del cliente en el store.
func ClientRowID(v int64) zap.Field { return zap.Int64("client_row_id", v) }

// UserID acepta el id numérico del resource owner.
func UserID(v int64) zap.Field { return zap.String("user_id", strconv.FormatInt(v, 10)) }

func Username(v string) zap.Field  { return zap.String("username", v) }
func GrantType(v string) zap.Field { return zap.String("grant_type", v) }
func Reason(v string) zap.Field    { return zap.String("reason", v) }

// ---------------------------------------------------------------------------------
// Sistema
// ---------------------------------------------------------------------------------

// Layer identifica la capa: controller, service, store.
func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Driver(v string) zap.Field    { return zap.String("driver", v) }
func Err(err error) zap.Field      { return zap.Error(err) }

func String(key, v string) zap.Field    { return zap.String(key, v) }
func Int(key string, v int) zap.Field   { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
func Any(key string, v any) zap.Field   { return zap.Any(key, v) }
