package server

import (
	"encoding/json"

	"applitrack/internal/middleware"
	"applitrack/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /posts: every job application the caller's token can see.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts, err := s.backend.ListRecords(c.UserContext(), middleware.Token(c), models.PostsCollection)
	if err != nil {
		return upstreamFailure(c, "Failed to fetch posts", err)
	}
	if posts == nil {
		posts = []json.RawMessage{}
	}

	return c.JSON(fiber.Map{
		"posts": posts,
	})
}

// CreatePost handles POST /createPost. The body is only read once the caller
// presented a bearer token, and ownership is left to the BaaS access rules.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	body, err := decodeObject(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Failed to create post"))
	}

	post, err := s.backend.CreateRecord(c.UserContext(), middleware.Token(c), models.PostsCollection, body)
	if err != nil {
		return upstreamFailure(c, "Failed to create post", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Post created successfully",
		"post":    post,
	})
}
