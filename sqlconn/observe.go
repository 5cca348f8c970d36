package sqlconn

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/hatlonely/sqlorm/sqlconn"

var (
	statementTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sqlorm",
		Name:      "statement_total",
		Help:      "number of executed statements",
	}, []string{"dialect", "kind", "status"})

	statementDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sqlorm",
		Name:      "statement_duration_seconds",
		Help:      "statement latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"dialect", "kind"})
)

// RegisterMetrics 把语句指标注册到 reg，重复注册不报错
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{statementTotal, statementDuration} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// statementKind 取语句的第一个关键字作为指标标签
func statementKind(query string) string {
	query = strings.TrimSpace(query)
	if idx := strings.IndexAny(query, " \t\n("); idx > 0 {
		query = query[:idx]
	}
	return strings.ToUpper(query)
}

// observe 获取一个连接执行 fn，执行完毕后释放连接，并记录日志、指标和 span
func (s *SQL) observe(ctx context.Context, query string, args []any, fn func(conn *sql.Conn) error) error {
	kind := statementKind(query)
	ctx, span := tracer().Start(ctx, "sqlorm."+strings.ToLower(kind), trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", s.dialect.Name()),
		attribute.String("db.statement", query),
	)

	s.logger.DebugContext(ctx, "execute statement", "sql", query, "args", args)

	start := time.Now()
	err := s.withConn(ctx, fn)
	statementDuration.WithLabelValues(s.dialect.Name(), kind).Observe(time.Since(start).Seconds())

	if err != nil {
		statementTotal.WithLabelValues(s.dialect.Name(), kind, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "statement failed", "sql", query, "error", err)
		return newStatementError(query, args, err)
	}
	statementTotal.WithLabelValues(s.dialect.Name(), kind, "ok").Inc()
	return nil
}

func (s *SQL) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(conn)
}
