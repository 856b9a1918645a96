package middleware

import (
	"net/http"
	"time"

	"github.com/haierkeys/content-revision-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AccessLog 记录访问日志，5xx 记为 error，4xx 记为 warn
func AccessLog(lg *zap.Logger) gin.HandlerFunc {
	if lg == nil {
		lg = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := zapcore.InfoLevel
		switch {
		case status >= http.StatusInternalServerError:
			level = zapcore.ErrorLevel
		case status >= http.StatusBadRequest:
			level = zapcore.WarnLevel
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		fields := []zap.Field{
			zap.String(logger.FieldMethod, c.Request.Method),
			zap.String("route", route),
			zap.String("url", c.Request.URL.RequestURI()),
			zap.Int("status", status),
			zap.Duration(logger.FieldDuration, time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.String("userAgent", c.Request.UserAgent()),
			zap.String(logger.FieldTraceID, GetTraceIDFromGin(c)),
		}
		if kind := c.Param("kind"); kind != "" {
			fields = append(fields, zap.String(logger.FieldKind, kind))
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields = append(fields, zap.String(logger.FieldError, errs))
		}

		if ce := lg.Check(level, "access"); ce != nil {
			ce.Write(fields...)
		}
	}
}
