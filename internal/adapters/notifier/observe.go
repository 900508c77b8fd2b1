package notifier

import (
	"github.com/feldboy/aparmenttool/internal/core/domain"
	"github.com/feldboy/aparmenttool/internal/metrics"
)

// observeDelivery учитывает исход попытки доставки в метриках.
func observeDelivery(ch domain.Channel, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.NotificationsSent.WithLabelValues(string(ch), outcome).Inc()
}
