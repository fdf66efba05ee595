package utils

import (
	"log"
	"time"
)

func TimeNowJST() time.Time {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		log.Fatal("Failed to load location", err)
	}
	return time.Now().In(loc)
}
