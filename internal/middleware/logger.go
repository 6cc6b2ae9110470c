package middleware

import (
	"net/http"

	logger "github.com/chi-middleware/logrus-logger"
	"github.com/sirupsen/logrus"
)

// Logger logs every request through the shared logrus logger.
var Logger func(next http.Handler) http.Handler = logger.Logger("api", logrus.StandardLogger())
