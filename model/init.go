package model

import "flowchat/platform"

func InstallDB() {
	db := platform.DB
	if err := db.AutoMigrate(
		&User{},
		&ConversationRecord{},
		&MessageRecord{}); err != nil {
		panic(err)
	}
}
