// Package minify serves the embeddable chat widget script, minified and
// cached in memory. The cache is keyed by source mtime so edits during
// development are picked up without a restart.
package minify

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/getevo/evo/v2/lib/log"
	"github.com/gofiber/fiber/v2"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/js"
)

type cacheEntry struct {
	content       []byte
	sourceModTime time.Time
	minifiedAt    time.Time
}

// JSMinifier minifies JavaScript files with an mtime-validated cache
type JSMinifier struct {
	cache    map[string]*cacheEntry
	mutex    sync.RWMutex
	minifier *minify.M
}

// NewJSMinifier creates a JS minifier instance
func NewJSMinifier() *JSMinifier {
	m := minify.New()
	m.AddFunc("application/javascript", js.Minify)

	return &JSMinifier{
		cache:    make(map[string]*cacheEntry),
		minifier: m,
	}
}

// Controller serves minified files below a base path
type Controller struct {
	basePath string
	minifier *JSMinifier
}

// NewController creates a minify controller rooted at basePath
func NewController(basePath string) *Controller {
	return &Controller{basePath: basePath, minifier: NewJSMinifier()}
}

// ServeMinifiedJS serves "<name>.min.js" minified from "<name>.js"
func (ctrl *Controller) ServeMinifiedJS(c *fiber.Ctx) error {
	requested := c.Params("*")

	if !strings.HasSuffix(requested, ".min.js") {
		return c.Status(404).SendString("Not found")
	}
	sourceName := strings.TrimSuffix(requested, ".min.js") + ".js"
	sourceFile := filepath.Join(ctrl.basePath, sourceName)

	info, err := os.Stat(sourceFile)
	if err != nil {
		log.Warning("minify: source file not found: %s", sourceFile)
		return c.Status(404).SendString("Not found")
	}

	ctrl.minifier.mutex.RLock()
	entry, exists := ctrl.minifier.cache[sourceFile]
	ctrl.minifier.mutex.RUnlock()

	if exists && entry.sourceModTime.Equal(info.ModTime()) {
		c.Set("Content-Type", "application/javascript; charset=utf-8")
		c.Set("Cache-Control", "public, max-age=31536000")
		return c.Send(entry.content)
	}

	source, err := os.ReadFile(sourceFile)
	if err != nil {
		log.Error("minify: failed to read %s: %v", sourceFile, err)
		return c.Status(500).SendString("Failed to read source file")
	}

	minified, err := ctrl.minifier.minifier.Bytes("application/javascript", source)
	if err != nil {
		log.Error("minify: failed to minify %s: %v", sourceName, err)
		// Serve the original rather than breaking embedded widgets
		c.Set("Content-Type", "application/javascript; charset=utf-8")
		return c.Send(source)
	}

	now := time.Now()
	ctrl.minifier.mutex.Lock()
	ctrl.minifier.cache[sourceFile] = &cacheEntry{
		content:       minified,
		sourceModTime: info.ModTime(),
		minifiedAt:    now,
	}
	ctrl.minifier.mutex.Unlock()

	log.Info("minify: %s %d -> %d bytes", sourceName, len(source), len(minified))

	c.Set("Content-Type", "application/javascript; charset=utf-8")
	c.Set("Cache-Control", "public, max-age=31536000")
	return c.Send(minified)
}

// ClearCache drops all cached minified files
func (ctrl *Controller) ClearCache() {
	ctrl.minifier.mutex.Lock()
	ctrl.minifier.cache = make(map[string]*cacheEntry)
	ctrl.minifier.mutex.Unlock()
}
