package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"trustvest/internal/invest"
)

type PaginatedRewards struct {
	Count    int                   `json:"count"`
	Next     string                `json:"next"`
	Previous string                `json:"previous"`
	Results  []invest.RewardRecord `json:"results"`
}

type PaginatedTx struct {
	Count    int                  `json:"count"`
	Next     string               `json:"next"`
	Previous string               `json:"previous"`
	Results  []invest.Transaction `json:"results"`
}

func pageParams(c *gin.Context) (page int, size int, ok bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return 0, 0, false
	}
	size, err = strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, 0, false
	}
	if size < 1 || size > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errors.New("maximum size is 100").Error()})
		return 0, 0, false
	}
	return page, size, true
}

func pageBounds(feedLen, page, size int) (i, j int, hasNext bool) {
	i = (page - 1) * size
	if i > feedLen {
		i = feedLen
	}
	j = i + size
	if j > feedLen {
		j = feedLen
	}
	return i, j, feedLen > page*size
}

func paginateRewards(rewards []invest.RewardRecord, page int, size int) (out PaginatedRewards) {
	out.Results = []invest.RewardRecord{}
	out.Count = len(rewards)
	i, j, hasNext := pageBounds(len(rewards), page, size)
	if hasNext {
		out.Next = fmt.Sprintf("/users/rewards/?page=%d&size=%d", page+1, size)
	}
	if page > 1 {
		out.Previous = fmt.Sprintf("/users/rewards/?page=%d&size=%d", page-1, size)
	}
	out.Results = rewards[i:j]
	return out
}

func paginateTx(transactions []invest.Transaction, page int, size int) (out PaginatedTx) {
	out.Results = []invest.Transaction{}
	out.Count = len(transactions)
	i, j, hasNext := pageBounds(len(transactions), page, size)
	if hasNext {
		out.Next = fmt.Sprintf("/users/tx/?page=%d&size=%d", page+1, size)
	}
	if page > 1 {
		out.Previous = fmt.Sprintf("/users/tx/?page=%d&size=%d", page-1, size)
	}
	out.Results = transactions[i:j]
	return out
}
