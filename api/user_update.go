package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"verigate/auth-api/service"
	"verigate/auth-api/validators"

	"github.com/gin-gonic/gin"
)

type userUpdateBody struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
	Birthday *string `json:"birthday"`
}

// UserUpdate applies a partial profile update. Users may only update
// their own record; the path id must match the authenticated user.
func (a *API) UserUpdate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	authedID := c.GetUint("userID")
	if uint(id) != authedID {
		fail(c, http.StatusForbidden, "You can only update your own account")
		return
	}

	var data userUpdateBody
	if err := c.ShouldBind(&data); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	errs := map[string]string{}
	in := service.UpdateUserInput{}

	if data.Name != nil {
		if err := validators.NameValidator(*data.Name); err != nil {
			errs["name"] = err.Error()
		} else {
			in.Name = data.Name
		}
	}
	if data.Password != nil {
		if err := validators.PasswordValidator(*data.Password); err != nil {
			errs["password"] = err.Error()
		} else {
			in.Password = data.Password
		}
	}
	if data.Birthday != nil {
		var birthday time.Time
		birthday, err = validators.BirthdayValidator(*data.Birthday)
		if err != nil {
			errs["birthday"] = err.Error()
		} else {
			in.Birthday = &birthday
		}
	}

	if len(errs) > 0 {
		failValidation(c, errs)
		return
	}

	if err := a.Auth.UpdateUser(c.Request.Context(), uint(id), in); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			fail(c, http.StatusNotFound, err.Error())
			return
		}
		internalError(c, err, "Failed to update user")
		return
	}

	success(c, http.StatusOK, gin.H{
		"message": "User updated successfully",
	})
}
