package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/cicilan/internal/providers/storage"
)

// Upload normalises an image and returns its public URL. Payment proofs are
// uploaded first and the URL is then sent as proofImage.
func (s *Server) Upload(c *gin.Context) {
	if s.uploader == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "required", "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		AbortWithError(c, storage.ErrEmptyFile)
		return
	}
	defer file.Close()

	url, err := s.uploader.UploadImage(c.Request.Context(), strings.TrimSpace(c.PostForm("scope")), file)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditTarget(c, "upload.create", "upload", "", map[string]any{"url": url, "filename": header.Filename})
	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"url": url}})
}
