package models

import "time"

// User is the public profile projection of a user. The identity service owns
// the rows; this service only reads them.
type User struct {
	ID        int       `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	NickName  string    `db:"nick_name" json:"nickName"`
	HeadPic   string    `db:"head_pic" json:"headPic"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"createTime"`
}
