package log

import (
	"time"

	"go.uber.org/zap"
)

// Field is a strongly typed log field.
type Field = zap.Field

// Cause attaches err under the "error" key.
func Cause(err error) Field { return zap.Error(err) }

func String(key, val string) Field { return zap.String(key, val) }

func Strings(key string, vals []string) Field { return zap.Strings(key, vals) }

func Int(key string, val int) Field { return zap.Int(key, val) }

func Int64(key string, val int64) Field { return zap.Int64(key, val) }

func Bool(key string, val bool) Field { return zap.Bool(key, val) }

func Duration(key string, val time.Duration) Field { return zap.Duration(key, val) }

func Time(key string, val time.Time) Field { return zap.Time(key, val) }

func Any(key string, val any) Field { return zap.Any(key, val) }
