package main

import (
	"context"
	"errors"
	"image"
	"log"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	_ "golang.org/x/image/webp"

	"cardprice/pkg/identify"
)

// Identifier is the pipeline as seen by the upload handler.
type Identifier interface {
	Identify(ctx context.Context, img image.Image) (identify.Outcome, error)
}

var identifier Identifier

func setupRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.POST("/login", loginHandler)
	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)
	authGroup.POST("/upload", uploadHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			return
		}
		token, err := jwt.Parse(authHeader[7:], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			return
		}
		c.Set("subject", sub)
		c.Next()
	}
}

func loginHandler(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := checkPassword(req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	tokenString, err := issueToken("uploader")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString})
}

func meHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"subject": c.GetString("subject")})
}

// uploadHandler identifies the card in the uploaded photo and reports its price.
func uploadHandler(c *gin.Context) {
	if limit := uploadLimit(); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}
	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		case hasEmptyFilePart(c):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No selected file"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file part"})
		}
		return
	}
	if file.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No selected file"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	f.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is not a supported image"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout())
	defer cancel()
	out, err := identifier.Identify(ctx, img)
	if err != nil {
		log.Printf("UPLOAD %s: %v", file.Filename, err)
		c.JSON(statusFor(err), gin.H{"error": identify.Reason(err), "extracted_text": out.ExtractedText})
		return
	}
	m := out.Match
	ref := m.ReferenceImagePath
	if ref == "" {
		ref = m.ReferenceImageURL
	}
	c.JSON(http.StatusOK, gin.H{
		"extracted_text":   out.ExtractedText,
		"best_match":       m.MatchedName,
		"card_value":       m.CardValue(),
		"similarity_score": m.SimilarityScore,
		"set":              m.Set,
		"collector_number": m.CollectorNumber,
		"reference_image":  ref,
		"cached":           out.Cached,
	})
}

// hasEmptyFilePart reports a "file" part sent without a filename, which the
// multipart reader files under values rather than files.
func hasEmptyFilePart(c *gin.Context) bool {
	form := c.Request.MultipartForm
	if form == nil {
		return false
	}
	_, ok := form.Value["file"]
	return ok
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, identify.ErrNoCardDetected), errors.Is(err, identify.ErrNoTitleExtracted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, identify.ErrNoCandidatesFound), errors.Is(err, identify.ErrNoMatchSelected):
		return http.StatusNotFound
	case errors.Is(err, identify.ErrDatabaseUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func requestTimeout() time.Duration {
	if appCfg != nil && appCfg.RequestTimeout > 0 {
		return appCfg.RequestTimeout
	}
	return 45 * time.Second
}

func uploadLimit() int64 {
	if appCfg != nil {
		return appCfg.UploadMaxBytes
	}
	return 10 << 20
}
