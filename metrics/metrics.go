package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LoginsOK = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delivery_logins_total",
		Help: "Successful logins.",
	})
	LoginsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delivery_logins_failed_total",
		Help: "Logins rejected with invalid credentials.",
	})
	RegistrationsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delivery_registrations_started_total",
		Help: "Registration sagas started.",
	})
	RegistrationsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_registrations_completed_total",
		Help: "Registration sagas completed, by role.",
	}, []string{"role"})
	CodesIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_codes_issued_total",
		Help: "One-time codes issued, by purpose.",
	}, []string{"purpose"})
	TokenRefreshes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delivery_token_refreshes_total",
		Help: "Refresh token exchanges that issued a new pair.",
	})
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delivery_orders_created_total",
		Help: "Orders created by merchants.",
	})
	OrderStatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_order_status_changes_total",
		Help: "Order status transitions applied, by new status.",
	}, []string{"status"})
)

// Handler exposes the default prometheus registry for the /metrics route.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
