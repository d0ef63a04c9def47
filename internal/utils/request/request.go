package request

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds every external data call. Expired calls count as failed, never retried.
const DefaultTimeout = 8 * time.Second

var Request = New(DefaultTimeout)

// New returns a resty client honoring proxy env vars. Retries stay disabled.
func New(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return resty.New().SetTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment, // 通用适配环境变量
	}).SetTimeout(timeout).SetRetryCount(0)
}
