package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jayeen28/techzu-backend/services"
	"github.com/jayeen28/techzu-backend/utils"
	"github.com/rs/zerolog/log"
)

// MaxUploadSize bounds a single uploaded file.
const MaxUploadSize = 10 << 20

type FileController struct {
	Files *services.FileService
}

func NewFileController(files *services.FileService) *FileController {
	return &FileController{Files: files}
}

// Upload stores the multipart field "file".
func (fc *FileController) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if header.Size > MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File size exceeds limit"})
		return
	}

	src, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer src.Close()

	var uploaderID string
	if user := utils.GetUser(c); user != nil {
		uploaderID = user.ID
	}

	file, err := fc.Files.Save(c.Request.Context(), uploaderID, services.Upload{
		Filename: header.Filename,
		Size:     header.Size,
		Body:     src,
	})
	if errors.Is(err, services.ErrUnsupportedFile) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Issue with file type for file " + header.Filename})
		return
	}
	if err != nil {
		respondError(c, err, "File not found")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": file.ID})
}

func (fc *FileController) Get(c *gin.Context) {
	file, body, err := fc.Files.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "File not found")
		return
	}
	defer body.Close()

	disposition := "inline"
	if file.Type == "image/svg+xml" {
		// svg can carry script
		disposition = "attachment"
		c.Header("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; sandbox")
	}
	c.Header("Content-Type", file.Type)
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Content-Disposition", disposition+"; filename="+strconv.Quote(file.OrgFilename))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		log.Warn().Err(err).Str("file", file.ID).Msg("file download interrupted")
	}
}
