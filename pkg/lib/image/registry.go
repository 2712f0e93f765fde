package image

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"

	"github.com/distribution/distribution/v3/configuration"
	"github.com/distribution/distribution/v3/registry/handlers"
	_ "github.com/distribution/distribution/v3/registry/storage/driver/filesystem" // Driver for persisting docker image data to the filesystem.
	_ "github.com/distribution/distribution/v3/registry/storage/driver/inmemory"   // Driver for keeping docker image data in memory.
)

// Registry is an in-process docker registry.
type Registry struct {
	*httptest.Server
}

// Host returns host:port of the registry, suitable as an image reference prefix.
func (r *Registry) Host() string {
	u, err := url.Parse(r.URL)
	if err != nil {
		return ""
	}
	return u.Host
}

// PlainHTTP reports whether the registry serves without TLS.
func (r *Registry) PlainHTTP() bool {
	return r.TLS == nil
}

type registryOptions struct {
	tls         bool
	middlewares []func(http.Handler) http.Handler
}

type RegistryOption func(*registryOptions)

// WithTLS serves the registry with a self-signed certificate.
func WithTLS(enabled bool) RegistryOption {
	return func(o *registryOptions) {
		o.tls = enabled
	}
}

func WithMiddleware(m func(http.Handler) http.Handler) RegistryOption {
	return func(o *registryOptions) {
		o.middlewares = append(o.middlewares, m)
	}
}

// RunDockerRegistry runs a docker registry on an available port.
// If rootDir isn't empty, image data is persisted below it, otherwise it is kept in memory.
// The caller must Close the returned registry.
func RunDockerRegistry(ctx context.Context, rootDir string, opts ...RegistryOption) *Registry {
	o := registryOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	config := &configuration.Configuration{}
	config.Log.Level = "error"

	if rootDir != "" {
		config.Storage = map[string]configuration.Parameters{"filesystem": map[string]interface{}{
			"rootdirectory": rootDir,
		}}
	} else {
		config.Storage = map[string]configuration.Parameters{"inmemory": map[string]interface{}{}}
	}

	var dockerRegistryApp http.Handler = handlers.NewApp(ctx, config)
	for _, m := range o.middlewares {
		dockerRegistryApp = m(dockerRegistryApp)
	}

	if o.tls {
		return &Registry{Server: httptest.NewTLSServer(dockerRegistryApp)}
	}
	return &Registry{Server: httptest.NewServer(dockerRegistryApp)}
}
