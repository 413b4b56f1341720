package web

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evcraddock/sharebnb/internal/message"
)

type messageEnvelope struct {
	Message message.Message `json:"message"`
}

func TestMessageFlow(t *testing.T) {
	e := testServer(t)
	ada, adaToken := e.addUser(t, "Ada", false)
	grace, graceToken := e.addUser(t, "Grace", false)

	w := e.request(t, "POST", "/messages", adaToken, map[string]interface{}{
		"toUserId": grace.ID,
		"body":     "Is the loft free in May?",
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	var created messageEnvelope
	decode(t, w, &created)
	assert.Equal(t, ada.ID, created.Message.FromUserID, "sender defaults to caller")
	assert.Equal(t, grace.ID, created.Message.ToUserID)
	assert.False(t, created.Message.SentAt.IsZero())
	assert.Nil(t, created.Message.ReadAt)
	assert.Contains(t, w.Body.String(), `"readAt":null`)

	path := fmt.Sprintf("/messages/%d", created.Message.ID)

	t.Run("sender and recipient can read detail", func(t *testing.T) {
		for _, token := range []string{adaToken, graceToken} {
			w := e.request(t, "GET", path, token, nil)
			require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
			var got struct {
				Message message.Detail `json:"message"`
			}
			decode(t, w, &got)
			assert.Equal(t, "Ada", got.Message.FromUser.FirstName)
			assert.Equal(t, "Grace", got.Message.ToUser.FirstName)
			assert.Equal(t, grace.Email, got.Message.ToUser.Email)
		}
	})

	t.Run("inbox", func(t *testing.T) {
		w := e.request(t, "GET", fmt.Sprintf("/messages/to/%d", grace.ID), graceToken, nil)
		require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
		var got struct {
			Messages []message.Inbound `json:"messages"`
		}
		decode(t, w, &got)
		require.Len(t, got.Messages, 1)
		assert.Equal(t, ada.ID, got.Messages[0].FromUser.ID)
		assert.Equal(t, "Is the loft free in May?", got.Messages[0].Body)
	})

	t.Run("empty inbox", func(t *testing.T) {
		w := e.request(t, "GET", fmt.Sprintf("/messages/to/%d", ada.ID), adaToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"messages":[]}`, w.Body.String())
	})

	t.Run("sender cannot mark read", func(t *testing.T) {
		w := e.request(t, "POST", path+"/read", adaToken, nil)
		assertError(t, w, http.StatusUnauthorized, "Cannot mark this message read")
	})

	t.Run("mark read keeps first time", func(t *testing.T) {
		w := e.request(t, "POST", path+"/read", graceToken, nil)
		require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
		var first struct {
			Message message.ReadReceipt `json:"message"`
		}
		decode(t, w, &first)
		assert.Equal(t, created.Message.ID, first.Message.ID)
		assert.False(t, first.Message.ReadAt.IsZero())

		time.Sleep(5 * time.Millisecond)
		w = e.request(t, "POST", path+"/read", graceToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var second struct {
			Message message.ReadReceipt `json:"message"`
		}
		decode(t, w, &second)
		assert.True(t, first.Message.ReadAt.Equal(second.Message.ReadAt))
	})
}

func TestMessageAccessControl(t *testing.T) {
	e := testServer(t)
	ada, adaToken := e.addUser(t, "Ada", false)
	grace, _ := e.addUser(t, "Grace", false)
	_, eveToken := e.addUser(t, "Eve", false)
	_, adminToken := e.addUser(t, "Root", true)

	w := e.request(t, "POST", "/messages", adaToken, map[string]interface{}{
		"fromUserId": ada.ID, "toUserId": grace.ID, "body": "hi",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created messageEnvelope
	decode(t, w, &created)
	path := fmt.Sprintf("/messages/%d", created.Message.ID)

	t.Run("third party cannot read", func(t *testing.T) {
		w := e.request(t, "GET", path, eveToken, nil)
		assertError(t, w, http.StatusUnauthorized, "Cannot read this message")
	})

	t.Run("third party cannot list inbox", func(t *testing.T) {
		w := e.request(t, "GET", fmt.Sprintf("/messages/to/%d", grace.ID), eveToken, nil)
		assertError(t, w, http.StatusUnauthorized, "Unauthorized")
	})

	t.Run("cannot send as someone else", func(t *testing.T) {
		w := e.request(t, "POST", "/messages", eveToken, map[string]interface{}{
			"fromUserId": ada.ID, "toUserId": grace.ID, "body": "spoof",
		})
		assertError(t, w, http.StatusUnauthorized, "Unauthorized")
	})

	t.Run("admin can read", func(t *testing.T) {
		w := e.request(t, "GET", path, adminToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("anonymous rejected", func(t *testing.T) {
		w := e.request(t, "GET", path, "", nil)
		assertError(t, w, http.StatusUnauthorized, "Unauthorized")
	})
}

func TestCreateMessageValidation(t *testing.T) {
	e := testServer(t)
	ada, adaToken := e.addUser(t, "Ada", false)
	_, adminToken := e.addUser(t, "Root", true)

	t.Run("self message", func(t *testing.T) {
		w := e.request(t, "POST", "/messages", adaToken, map[string]interface{}{
			"toUserId": ada.ID, "body": "note to self",
		})
		assertError(t, w, http.StatusBadRequest, "fromUserId and toUserId must differ")
	})

	t.Run("missing body and recipient", func(t *testing.T) {
		w := e.request(t, "POST", "/messages", adaToken, map[string]interface{}{})
		assertError(t, w, http.StatusBadRequest, []interface{}{
			"toUserId must be a positive integer",
			"body is required",
		})
	})

	t.Run("unknown recipient", func(t *testing.T) {
		w := e.request(t, "POST", "/messages", adminToken, map[string]interface{}{
			"fromUserId": ada.ID, "toUserId": 9999, "body": "hello?",
		})
		assertError(t, w, http.StatusBadRequest, nil)
	})
}

func TestMessageNotFound(t *testing.T) {
	e := testServer(t)
	_, token := e.addUser(t, "Ada", false)

	w := e.request(t, "GET", "/messages/77", token, nil)
	assertError(t, w, http.StatusNotFound, "No such message: 77")

	w = e.request(t, "POST", "/messages/77/read", token, nil)
	assertError(t, w, http.StatusNotFound, "No such message: 77")
}
