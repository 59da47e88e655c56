// Package site serves the website:
// the blog, the photo pages, and the static assets.
package site

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"braces.dev/errtrace"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go.halloway.dev/website/internal/blog"
	"go.halloway.dev/website/internal/photos"
)

//go:embed tmpl/*.html
var _templates embed.FS

// Cache-Control for image responses.
// Image URLs embed a content hash, so 30 days of immutability is safe:
// changed content gets a different URL.
const _photoCachePolicy = "max-age=2592000, immutable"

// Number of photos previewed at the site root.
const _previewPhotos = 5

// Number of posts previewed at the site root.
const _previewPosts = 5

// Server answers the site's HTTP requests.
type Server struct {
	// Blog holds the loaded blog posts.
	Blog *blog.Store

	// Photos holds the processed photo collection.
	Photos *photos.Store

	// StaticDir is served at the site root for paths
	// no other route claims.
	StaticDir string

	// Log records request-level problems.
	Log *zap.Logger
}

// Router builds the site's request router.
func (s *Server) Router() (*gin.Engine, error) {
	tmpl, err := template.ParseFS(_templates, "tmpl/*.html")
	if err != nil {
		return nil, errtrace.Errorf("parse templates: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), logNotFound(s.Log))
	router.SetHTMLTemplate(tmpl)

	router.GET("/", s.index)

	router.GET("/blog", s.blogIndex)
	router.GET("/blog/:post", s.blogPost)
	router.GET("/blog/tag/:tag", s.blogTag)

	router.GET("/photos", s.photosIndex)
	router.GET("/photos/albums", s.photoAlbums)
	router.GET("/photos/view/:name", s.photoPage)
	router.GET("/photos/album/:name", s.photoAlbum)
	router.GET("/photos/map", s.photoMap)
	router.GET("/photos/img-file/:name", s.imageFile)

	router.NoRoute(s.staticAsset)

	return router, nil
}

// indexData feeds the site root's template.
type indexData struct {
	Posts    []*blog.Post
	Photos   []*photos.Photo
	FlexGrid photos.FlexGridSettings
}

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", indexData{
		Posts:    s.Blog.Recent(_previewPosts),
		Photos:   s.Photos.Recent(_previewPhotos),
		FlexGrid: s.Photos.Index().FlexGrid,
	})
}

func (s *Server) blogIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "blog_index.html", s.Blog.Index())
}

func (s *Server) blogPost(c *gin.Context) {
	post, ok := s.Blog.Post(c.Param("post"))
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.HTML(http.StatusOK, "blog_post.html", post)
}

func (s *Server) blogTag(c *gin.Context) {
	ctx, ok := s.Blog.Tag(c.Param("tag"))
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.HTML(http.StatusOK, "blog_tag.html", ctx)
}

func (s *Server) photosIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "photos_index.html", s.Photos.Index())
}

func (s *Server) photoAlbums(c *gin.Context) {
	c.HTML(http.StatusOK, "photos_albums.html", s.Photos.Albums())
}

func (s *Server) photoPage(c *gin.Context) {
	page, redirect, ok := s.Photos.ImagePage(c.Param("name"), c.Query("album"))
	switch {
	case !ok:
		c.Status(http.StatusNotFound)
	case redirect != "":
		c.Redirect(http.StatusFound, redirect)
	default:
		c.HTML(http.StatusOK, "photos_photo.html", page)
	}
}

func (s *Server) photoAlbum(c *gin.Context) {
	ctx, ok := s.Photos.Album(c.Param("name"))
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.HTML(http.StatusOK, "photos_album.html", ctx)
}

func (s *Server) photoMap(c *gin.Context) {
	c.HTML(http.StatusOK, "photos_map.html", s.Photos.Map())
}

func (s *Server) imageFile(c *gin.Context) {
	rev, hasRev := c.GetQuery("rev")
	content, redirect, err := s.Photos.Image(c.Param("name"), c.Query("size"), rev, hasRev)
	switch {
	case errors.Is(err, photos.ErrUnknownSize):
		c.Status(http.StatusBadRequest)
		return
	case errors.Is(err, photos.ErrImageNotFound):
		c.Status(http.StatusNotFound)
		return
	case redirect != nil:
		status := http.StatusFound
		if redirect.Permanent {
			status = http.StatusMovedPermanently
		}
		c.Redirect(status, redirect.URL)
		return
	}

	c.Header("Cache-Control", _photoCachePolicy)
	if content.Path != "" {
		c.File(content.Path)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", content.Data)
}

// staticAsset serves files from the static directory
// for any path that no route claims.
func (s *Server) staticAsset(c *gin.Context) {
	// Clean with a leading slash so ".." can't climb out
	// of the static directory.
	rel := path.Clean("/" + c.Request.URL.Path)
	full := filepath.Join(s.StaticDir, filepath.FromSlash(rel))

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		c.Status(http.StatusNotFound)
		return
	}
	c.File(full)
}
