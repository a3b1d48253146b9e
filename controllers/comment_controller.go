package controllers

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jayeen28/techzu-backend/pipeline"
	"github.com/jayeen28/techzu-backend/services"
	"github.com/jayeen28/techzu-backend/utils"
)

const (
	defaultPageLimit = 5
	maxPageLimit     = 100
	commentNotFound  = "Comment not found"
)

type CommentController struct {
	Comments *services.CommentService
}

func NewCommentController(comments *services.CommentService) *CommentController {
	return &CommentController{Comments: comments}
}

// List returns a page of top-level comments of a post, or the replies of ?replyOf.
func (cc *CommentController) List(c *gin.Context) {
	input := services.ListInput{
		Post:  c.Param("post"),
		Page:  utils.ParseIntDefault(c.Query("page"), 1, 1, math.MaxInt32),
		Limit: utils.ParseIntDefault(c.Query("limit"), defaultPageLimit, 1, maxPageLimit),
		Sort:  c.DefaultQuery("sort", pipeline.DefaultSort),
	}
	if replyOf := c.Query("replyOf"); replyOf != "" {
		input.ReplyOf = &replyOf
	}
	if userID := c.Query("userId"); userID != "" {
		input.Fields = map[pipeline.Field]interface{}{pipeline.FieldUserID: userID}
	}

	res, err := cc.Comments.List(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, commentNotFound)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (cc *CommentController) View(c *gin.Context) {
	view, err := cc.Comments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, commentNotFound)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (cc *CommentController) Create(c *gin.Context) {
	user := utils.GetUser(c)

	var input struct {
		Content string  `json:"content"`
		ReplyOf *string `json:"replyOf"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := cc.Comments.Create(c.Request.Context(), user.ID, services.CreateCommentInput{
		Post:    c.Param("post"),
		Content: input.Content,
		ReplyOf: input.ReplyOf,
	})
	if err != nil {
		respondError(c, err, commentNotFound)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (cc *CommentController) Edit(c *gin.Context) {
	user := utils.GetUser(c)

	var input struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := cc.Comments.Edit(c.Request.Context(), c.Param("id"), user.ID, input.Content)
	if err != nil {
		respondError(c, err, commentNotFound)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// React adds the caller's reaction. Reacting twice is not an error and reports modified=false.
func (cc *CommentController) React(c *gin.Context) {
	user := utils.GetUser(c)

	var input struct {
		Kind string `json:"kind"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := cc.Comments.AddReaction(c.Request.Context(), c.Param("id"), user.ID, input.Kind)
	if err != nil {
		respondError(c, err, commentNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"modified": res.Modified})
}

func (cc *CommentController) Remove(c *gin.Context) {
	user := utils.GetUser(c)

	res, err := cc.Comments.Remove(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		respondError(c, err, commentNotFound)
		return
	}
	c.JSON(http.StatusOK, res)
}
