package catalogsvc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mkrupp/shopzone/internal/domain"
	context_ "github.com/mkrupp/shopzone/internal/infra/context"
	"github.com/mkrupp/shopzone/internal/infra/logging"
	http_ "github.com/mkrupp/shopzone/internal/infra/transport/http"
	"github.com/mkrupp/shopzone/internal/repo/catalog"
)

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig

	// URLWidthParam is the query parameter selecting a resized image.
	URLWidthParam string `env:"URL_WIDTH_PARAM" default:"width"`
}

// ProductView is a product as served by the API.
type ProductView struct {
	domain.Product

	StockStatus   domain.StockStatus `json:"stockStatus"`
	CategoryLabel string             `json:"categoryLabel"`
}

// ProductsResponse is the body of GET /products.
type ProductsResponse struct {
	Success  bool          `json:"success"`
	Count    int           `json:"count"`
	Products []ProductView `json:"products"`
}

// ProductResponse is the body of GET /products/{id}.
type ProductResponse struct {
	Success bool            `json:"success"`
	Product ProductView     `json:"product"`
	Reviews []domain.Review `json:"reviews"`
}

// CategoriesResponse is the body of GET /categories.
type CategoriesResponse struct {
	Success     bool                `json:"success"`
	Categories  []domain.Category   `json:"categories"`
	SortOptions []domain.SortOption `json:"sortOptions"`
}

// ImageResponse is the body of a successful image upload or delete.
type ImageResponse struct {
	Success   bool             `json:"success"`
	Message   string           `json:"message"`
	ProductID domain.ProductID `json:"productId"`
	MIMEType  string           `json:"contentType,omitempty"`
	Size      int64            `json:"size,omitempty"`
}

// HTTPTransport serves the catalog and product images.
type HTTPTransport struct {
	catalog  *catalog.Catalog
	imageSvc *ImageService
	auth     http_.Authenticator
	router   chi.Router
	log      logging.Logger
	cfg      HTTPTransportConfig
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport with the routes:
// - GET /products
// - GET /products/{id}
// - GET /categories
// - GET /products/{id}/image
// - PUT /products/{id}/image (authenticated)
// - DELETE /products/{id}/image (authenticated).
func NewHTTPTransport(
	c *catalog.Catalog,
	imageSvc *ImageService,
	auth http_.Authenticator,
	cfg HTTPTransportConfig,
) *HTTPTransport {
	ht := &HTTPTransport{
		catalog:  c,
		imageSvc: imageSvc,
		auth:     auth,
		router:   chi.NewRouter(),
		log:      logging.GetLogger("svc.catalogsvc.http_transport"),
		cfg:      cfg,
	}

	ht.router.Get("/products", ht.HandleProducts)
	ht.router.Get("/products/{id}", ht.HandleProduct)
	ht.router.Get("/categories", ht.HandleCategories)
	ht.router.Get("/products/{id}/image", ht.HandleDownload)

	ht.router.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http_.AuthorizingMiddleware(next, ht.auth, ht.log)
		})
		r.Put("/products/{id}/image", ht.HandleUpload)
		r.Delete("/products/{id}/image", ht.HandleDelete)
	})

	return ht
}

func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.router.ServeHTTP(w, r)
}

func (ht *HTTPTransport) requestLog(r *http.Request) logging.Logger {
	return ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))
}

func (ht *HTTPTransport) view(p domain.Product) ProductView {
	return ProductView{
		Product:       p,
		StockStatus:   catalog.StockStatus(p.Stock),
		CategoryLabel: ht.catalog.CategoryLabel(p.Category),
	}
}

func productID(r *http.Request) (domain.ProductID, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse product id: %w", err)
	}

	return domain.ProductID(id), nil
}

// HandleProducts lists products filtered by the category, q and featured
// query parameters and sorted by sort.
func (ht *HTTPTransport) HandleProducts(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleProducts(w, r)
}

func (ht *HTTPTransport) handleProducts(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.DebugContext(ctx, "products request rejected", "error", err)
		}
	}(r.Context())

	params := r.URL.Query()

	query := catalog.Query{
		Category: params.Get("category"),
		Search:   params.Get("q"),
		Sort:     params.Get("sort"),
	}

	if featured := params.Get("featured"); featured != "" {
		query.Featured, err = strconv.ParseBool(featured)
		if err != nil {
			http_.RespondError(w, http.StatusBadRequest, "Invalid featured filter")

			return fmt.Errorf("parse featured: %w", err)
		}
	}

	products := ht.catalog.Query(query)
	views := make([]ProductView, 0, len(products))

	for _, p := range products {
		views = append(views, ht.view(p))
	}

	return http_.RespondJSON(w, http.StatusOK, ProductsResponse{
		Success:  true,
		Count:    len(views),
		Products: views,
	})
}

// HandleProduct returns one product with its reviews.
func (ht *HTTPTransport) HandleProduct(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleProduct(w, r)
}

func (ht *HTTPTransport) handleProduct(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.DebugContext(ctx, "product request rejected", "error", err)
		}
	}(r.Context())

	id, err := productID(r)
	if err != nil {
		http_.RespondError(w, http.StatusBadRequest, "Invalid product id")

		return err
	}

	p, ok := ht.catalog.FindByID(id)
	if !ok {
		http_.RespondError(w, http.StatusNotFound, "Product not found")

		return domain.ErrProductNotFound
	}

	reviews := ht.catalog.Reviews(id)
	if reviews == nil {
		reviews = []domain.Review{}
	}

	return http_.RespondJSON(w, http.StatusOK, ProductResponse{
		Success: true,
		Product: ht.view(p),
		Reviews: reviews,
	})
}

// HandleCategories returns the categories and sort options.
func (ht *HTTPTransport) HandleCategories(w http.ResponseWriter, _ *http.Request) {
	_ = http_.RespondJSON(w, http.StatusOK, CategoriesResponse{
		Success:     true,
		Categories:  ht.catalog.Categories(),
		SortOptions: ht.catalog.SortOptions(),
	})
}

// HandleDownload serves the image of a product, resized when the width
// query parameter is set.
func (ht *HTTPTransport) HandleDownload(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleDownload(w, r)
}

func (ht *HTTPTransport) handleDownload(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.DebugContext(ctx, "image download failed", "error", err)
		}
	}(r.Context())

	id, err := productID(r)
	if err != nil {
		http_.RespondError(w, http.StatusBadRequest, "Invalid product id")

		return err
	}

	var width int

	if widthStr := r.URL.Query().Get(ht.cfg.URLWidthParam); widthStr != "" {
		width, err = strconv.Atoi(widthStr)
		if err != nil {
			http_.RespondError(w, http.StatusBadRequest, "Invalid width")

			return fmt.Errorf("parse width: %w", err)
		}
	}

	img, err := ht.imageSvc.Fetch(r.Context(), id, width)
	if err != nil {
		ht.respondImageError(w, err)

		return err
	}

	w.Header().Set("Content-Type", img.MIMEType)
	w.Header().Set("Content-Length", strconv.FormatInt(img.Size(), 10))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(img.Body); err != nil {
		return fmt.Errorf("write image: %w", err)
	}

	return nil
}

// HandleUpload replaces the image of a product with the request body.
func (ht *HTTPTransport) HandleUpload(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleUpload(w, r)
}

func (ht *HTTPTransport) handleUpload(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	if user, ok := context_.UserFromContext(r.Context()); ok {
		log = log.With(logging.Group("user", "id", user.ID))
	}

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "image upload failed", "error", err)
		} else {
			log.InfoContext(ctx, "image uploaded")
		}
	}(r.Context())

	id, err := productID(r)
	if err != nil {
		http_.RespondError(w, http.StatusBadRequest, "Invalid product id")

		return err
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, ht.imageSvc.MaxSize()))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			err = errors.Join(domain.ErrImageTooLarge, err)
		}

		ht.respondImageError(w, err)

		return fmt.Errorf("read body: %w", err)
	}

	img, err := ht.imageSvc.Store(r.Context(), id, r.Header.Get("Content-Type"), body)
	if err != nil {
		ht.respondImageError(w, err)

		return err
	}

	return http_.RespondJSON(w, http.StatusOK, ImageResponse{
		Success:   true,
		Message:   "Image uploaded",
		ProductID: img.ProductID,
		MIMEType:  img.MIMEType,
		Size:      img.Size(),
	})
}

// HandleDelete removes the image of a product.
func (ht *HTTPTransport) HandleDelete(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleDelete(w, r)
}

func (ht *HTTPTransport) handleDelete(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "image delete failed", "error", err)
		}
	}(r.Context())

	id, err := productID(r)
	if err != nil {
		http_.RespondError(w, http.StatusBadRequest, "Invalid product id")

		return err
	}

	if err := ht.imageSvc.Delete(r.Context(), id); err != nil {
		ht.respondImageError(w, err)

		return err
	}

	return http_.RespondJSON(w, http.StatusOK, ImageResponse{
		Success:   true,
		Message:   "Image deleted",
		ProductID: id,
	})
}

func (ht *HTTPTransport) respondImageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		http_.RespondError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, domain.ErrImageNotFound):
		http_.RespondError(w, http.StatusNotFound, "Image not found")
	case errors.Is(err, domain.ErrImageTooLarge):
		http_.RespondError(w, http.StatusRequestEntityTooLarge, "Image too large")
	case errors.Is(err, domain.ErrImageTypeNotSupported):
		http_.RespondError(w, http.StatusUnsupportedMediaType, "Image type not supported")
	case errors.Is(err, domain.ErrImageTypeMismatch):
		http_.RespondError(w, http.StatusBadRequest, "Image content does not match its content type")
	case errors.Is(err, ErrInvalidWidth):
		http_.RespondError(w, http.StatusBadRequest, "Invalid width")
	default:
		http_.RespondError(w, http.StatusInternalServerError, "Server error")
	}
}
