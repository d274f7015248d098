package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labtrack_logins_total",
		Help: "Session admission attempts by outcome.",
	}, []string{"result"})

	SweptSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "labtrack_sessions_swept_total",
		Help: "Sessions force-closed by the midnight sweep.",
	})

	OTPSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "labtrack_otp_sent_total",
		Help: "OTP verification emails sent.",
	})
)
