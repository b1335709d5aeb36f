package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"strcheck/internal/report"
	"strcheck/internal/validator"
)

const (
	maxInputs      = 64
	maxInputLength = 4096
)

var serveCmd = &cobra.Command{
	Use:   "serve PORT",
	Short: "Serve /check over HTTP",
	Long: `Starts an HTTP server. GET /check?s=Hello&s=98052 returns the report for
the given strings; format=yaml|json selects another report format.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port := args[0]
		if p, err := strconv.Atoi(port); err != nil || p < 0 || p > 65535 {
			return fmt.Errorf("invalid port %q", port)
		}
		reg, err := validator.LoadRules(cfg.RulesFile)
		if err != nil {
			return err
		}

		listener, err := net.Listen("tcp", ":"+port)
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}

		logger.Info("String check server starting",
			zap.String("port", port),
			zap.Strings("validators", reg.Names()),
			zap.Duration("limiter_every", cfg.Limiter.Every),
			zap.Int("limiter_burst", cfg.Limiter.Burst))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := serve(ctx, listener, newCheckServer(reg, cfg.Limiter), cfg.Server); err != nil {
			return err
		}
		logger.Info("Server stopped")
		return nil
	},
}

// limiterSet хранит ограничитель запросов на каждый IP клиента.
type limiterSet struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time
	every    time.Duration
	burst    int
}

func newLimiterSet(every time.Duration, burst int) *limiterSet {
	return &limiterSet{
		limiters: make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		every:    every,
		burst:    burst,
	}
}

func (ls *limiterSet) get(ip string) *rate.Limiter {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.lastSeen[ip] = time.Now()
	if limiter, exists := ls.limiters[ip]; exists {
		return limiter
	}
	limiter := rate.NewLimiter(rate.Every(ls.every), ls.burst)
	ls.limiters[ip] = limiter
	return limiter
}

// sweep удаляет ограничители, не использовавшиеся дольше idle. Возвращает число удалённых.
func (ls *limiterSet) sweep(now time.Time, idle time.Duration) int {
	ls.mu.RLock()
	var toDelete []string
	for ip, last := range ls.lastSeen {
		if now.Sub(last) > idle {
			toDelete = append(toDelete, ip)
		}
	}
	ls.mu.RUnlock()
	if len(toDelete) == 0 {
		return 0
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	removed := 0
	for _, ip := range toDelete {
		// клиент мог вернуться между RUnlock и Lock
		if now.Sub(ls.lastSeen[ip]) <= idle {
			continue
		}
		delete(ls.limiters, ip)
		delete(ls.lastSeen, ip)
		removed++
	}
	return removed
}

func (ls *limiterSet) len() int {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return len(ls.limiters)
}

func (ls *limiterSet) cleanup(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := ls.sweep(now, idle); n > 0 {
				logger.Debug("Dropped idle limiters", zap.Int("count", n))
			}
		}
	}
}

type checkServer struct {
	reg      *validator.Registry
	limiters *limiterSet
	limits   LimiterConfig
	group    singleflight.Group
}

func newCheckServer(reg *validator.Registry, limits LimiterConfig) *checkServer {
	return &checkServer{
		reg:      reg,
		limiters: newLimiterSet(limits.Every, limits.Burst),
		limits:   limits,
	}
}

func (s *checkServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/check", s.handleCheck)
	return mux
}

func (s *checkServer) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	clientIP, _, _ := net.SplitHostPort(r.RemoteAddr)
	if clientIP == "" {
		clientIP = r.RemoteAddr
	}
	if !isLocalIP(clientIP) {
		if !s.limiters.get(clientIP).Allow() {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
	}

	query := r.URL.Query()
	inputs := query["s"]
	if len(inputs) == 0 {
		http.Error(w, "Missing s parameter", http.StatusBadRequest)
		return
	}
	if len(inputs) > maxInputs {
		http.Error(w, fmt.Sprintf("Too many inputs (max %d)", maxInputs), http.StatusBadRequest)
		return
	}
	for _, in := range inputs {
		if len(in) > maxInputLength {
			http.Error(w, "Input too long", http.StatusBadRequest)
			return
		}
	}
	format := query.Get("format")
	if format == "" {
		format = report.FormatText
	}

	result, err, shared := s.group.Do(queryKey(format, inputs), func() (interface{}, error) {
		var buf bytes.Buffer
		if err := report.Write(&buf, report.Run(inputs, s.reg), format); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
	if err != nil {
		if errors.Is(err, report.ErrUnknownFormat) {
			http.Error(w, "Unknown format", http.StatusBadRequest)
			return
		}
		logger.Error("Report failed", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	content := result.([]byte)
	logger.Debug("Checked",
		zap.String("client", clientIP),
		zap.Int("inputs", len(inputs)),
		zap.Bool("shared", shared))

	w.Header().Set("Content-Type", report.ContentType(format))
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.Write(content)
}

// queryKey строит ключ для объединения одинаковых запросов.
// Каждая строка экранируется, поэтому разделитель не может встретиться внутри неё.
func queryKey(format string, inputs []string) string {
	var b strings.Builder
	b.WriteString(strconv.Quote(format))
	for _, in := range inputs {
		b.WriteByte(',')
		b.WriteString(strconv.Quote(in))
	}
	return b.String()
}

// serve обслуживает запросы на ln до отмены ctx, затем корректно останавливает сервер
// и фоновую очистку ограничителей.
func serve(ctx context.Context, ln net.Listener, s *checkServer, sc ServerConfig) error {
	server := &http.Server{
		Handler:      s.routes(),
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
	}

	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.limiters.cleanup(cleanupCtx, s.limits.CleanupInterval, s.limits.IdleTimeout)
	}()
	defer func() {
		cancelCleanup()
		wg.Wait()
	}()

	errChan := make(chan error, 1)
	go func() { errChan <- server.Serve(ln) }()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down gracefully")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), sc.ShutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("force shutdown: %w", err)
		}
		if err := <-errChan; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}
	return nil
}

func isLocalIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return true
	}
	if ip4 := ip.To4(); ip4 != nil {
		ip = ip4
	}
	return ip.IsLoopback() || ip.IsPrivate()
}
