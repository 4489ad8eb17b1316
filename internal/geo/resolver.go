package geo

import (
	"context"
	"net/netip"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"golink-redirect/internal/metrics"
	"golink-redirect/pkg/logging"
)

// Geolocation 地理位置信息，未知字段为 nil
type Geolocation struct {
	Country  *string `json:"country"`
	Region   *string `json:"region"`
	City     *string `json:"city"`
	Timezone *string `json:"timezone"`
	ISP      *string `json:"isp"`
}

// Intelligence 一个 IP 的反向解析与地理位置结果
type Intelligence struct {
	Hostname *string     `json:"hostname"`
	Geo      Geolocation `json:"geo"`
}

// HostnameResolver PTR 查询，*net.Resolver 满足该接口
type HostnameResolver interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

// Geolocator 外部 IP 地理位置服务
type Geolocator interface {
	Locate(ctx context.Context, ip string) (Geolocation, error)
}

type Resolver struct {
	dns        HostnameResolver
	geo        Geolocator
	dnsTimeout time.Duration
	geoTimeout time.Duration
}

// NewResolver geo 为 nil 时只做反向解析
func NewResolver(dns HostnameResolver, geo Geolocator, dnsTimeout, geoTimeout time.Duration) *Resolver {
	return &Resolver{
		dns:        dns,
		geo:        geo,
		dnsTimeout: dnsTimeout,
		geoTimeout: geoTimeout,
	}
}

// Resolve 并发执行反向解析与地理位置查询，两者互不影响；任何失败都降级为 nil，不返回错误
func (r *Resolver) Resolve(ctx context.Context, ip string) Intelligence {
	var (
		out Intelligence
		wg  sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		defer recoverLookup("dns", ip)
		out.Hostname = r.reverseDNS(ctx, ip)
	}()
	go func() {
		defer wg.Done()
		defer recoverLookup("geo", ip)
		out.Geo = r.locate(ctx, ip)
	}()
	wg.Wait()

	return out
}

func (r *Resolver) reverseDNS(ctx context.Context, ip string) *string {
	if r.dns == nil {
		return nil
	}
	if _, err := netip.ParseAddr(ip); err != nil {
		metrics.GeoLookups.WithLabelValues("dns", "error").Inc()
		return nil
	}

	if r.dnsTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.dnsTimeout)
		defer cancel()
	}

	names, err := r.dns.LookupAddr(ctx, ip)
	if err != nil {
		logging.Logger.Debug("Reverse DNS lookup failed", zap.String("ip", ip), zap.Error(err))
		metrics.GeoLookups.WithLabelValues("dns", "error").Inc()
		return nil
	}
	for _, name := range names {
		if host := strings.TrimSuffix(name, "."); host != "" {
			metrics.GeoLookups.WithLabelValues("dns", "ok").Inc()
			return &host
		}
	}
	metrics.GeoLookups.WithLabelValues("dns", "miss").Inc()
	return nil
}

func (r *Resolver) locate(ctx context.Context, ip string) Geolocation {
	if r.geo == nil {
		return Geolocation{}
	}
	if IsPrivateIP(ip) {
		metrics.GeoLookups.WithLabelValues("geo", "private").Inc()
		return Geolocation{}
	}

	if r.geoTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.geoTimeout)
		defer cancel()
	}

	loc, err := r.geo.Locate(ctx, ip)
	if err != nil {
		logging.Logger.Debug("Geolocation lookup failed", zap.String("ip", ip), zap.Error(err))
		metrics.GeoLookups.WithLabelValues("geo", "error").Inc()
		return Geolocation{}
	}
	metrics.GeoLookups.WithLabelValues("geo", "ok").Inc()
	return loc
}

func recoverLookup(source, ip string) {
	if rec := recover(); rec != nil {
		logging.Logger.Error("IP lookup panicked",
			zap.String("source", source),
			zap.String("ip", ip),
			zap.Any("panic", rec))
		metrics.GeoLookups.WithLabelValues(source, "error").Inc()
	}
}
