package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

// createTask handles POST /tasks.
func (s *Server) createTask(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		s.badRequest(c, "body", "must be a JSON object")
		return
	}

	task, err := s.tasks.Create(c.Request.Context(), authFrom(c), fields)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// listTasks handles GET /tasks?completed=true&sortBy=createdAt:desc&limit=10&skip=20.
func (s *Server) listTasks(c *gin.Context) {
	filter, ok := s.parseTaskFilter(c)
	if !ok {
		return
	}

	list, err := s.tasks.List(c.Request.Context(), authFrom(c), filter)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) parseTaskFilter(c *gin.Context) (models.TaskFilter, bool) {
	var filter models.TaskFilter

	if v, ok := c.GetQuery("completed"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.badRequest(c, "completed", "must be true or false")
			return filter, false
		}
		filter.Completed = &b
	}

	sortBy, desc, err := services.ParseSort(c.Query("sortBy"))
	if err != nil {
		s.abortWithError(c, err)
		return filter, false
	}
	filter.SortBy, filter.Desc = sortBy, desc

	for name, dst := range map[string]*int{"limit": &filter.Limit, "skip": &filter.Skip} {
		v, ok := c.GetQuery(name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.badRequest(c, name, "must be a non-negative integer")
			return filter, false
		}
		*dst = n
	}

	return filter, true
}

// getTask handles GET /tasks/:id.
func (s *Server) getTask(c *gin.Context) {
	task, err := s.tasks.Get(c.Request.Context(), authFrom(c), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// updateTask handles PATCH /tasks/:id.
func (s *Server) updateTask(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		s.badRequest(c, "body", "must be a JSON object")
		return
	}

	task, err := s.tasks.Update(c.Request.Context(), authFrom(c), c.Param("id"), fields)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// deleteTask handles DELETE /tasks/:id and answers with the removed task.
func (s *Server) deleteTask(c *gin.Context) {
	task, err := s.tasks.Delete(c.Request.Context(), authFrom(c), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}
