package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (mc *MaterialController) TrackDownload(c *gin.Context) {
	id, found := paramID(c, "id", "Material")
	if !found {
		return
	}
	downloads, err := mc.materials.TrackDownload(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	ok(c, http.StatusOK, gin.H{"downloads": downloads})
}

func (mc *MaterialController) ToggleLike(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	id, found := paramID(c, "id", "Material")
	if !found {
		return
	}
	state, err := mc.materials.ToggleLike(c.Request.Context(), id, a.ID)
	if err != nil {
		c.Error(err)
		return
	}
	ok(c, http.StatusOK, gin.H{"liked": state.Liked, "likeCount": state.LikeCount})
}

func (mc *MaterialController) ToggleBookmark(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	id, found := paramID(c, "id", "Material")
	if !found {
		return
	}
	state, err := mc.materials.ToggleBookmark(c.Request.Context(), id, a.ID)
	if err != nil {
		c.Error(err)
		return
	}
	ok(c, http.StatusOK, gin.H{"bookmarked": state.Bookmarked, "bookmarks": state.Bookmarks})
}

type CommentInput struct {
	Text string `json:"text" binding:"required,max=500"`
}

func (mc *MaterialController) AddComment(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	id, found := paramID(c, "id", "Material")
	if !found {
		return
	}
	var input CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(err)
		return
	}

	comments, err := mc.materials.AddComment(c.Request.Context(), id, a.ID, input.Text)
	if err != nil {
		c.Error(err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"comments": comments})
}

func (mc *MaterialController) DeleteComment(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	id, found := paramID(c, "id", "Material")
	if !found {
		return
	}
	commentID, found := paramID(c, "commentId", "Comment")
	if !found {
		return
	}
	if err := mc.materials.DeleteComment(c.Request.Context(), a, id, commentID); err != nil {
		c.Error(err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "Comment deleted"})
}
