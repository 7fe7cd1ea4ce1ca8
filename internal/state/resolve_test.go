package state

import "testing"

func TestThreadForMessage(t *testing.T) {
	cases := []struct {
		name string
		msg  *Message
		want ThreadID
	}{
		{"nil", nil, MainThread},
		{"plain", &Message{ID: 1}, MainThread},
		{"topic", &Message{ID: 1, TopicID: 7}, 7},
		{"comments", &Message{ID: 1, CommentsThreadID: 9}, 9},
		{"topic wins over comments", &Message{ID: 1, TopicID: 7, CommentsThreadID: 9}, 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ThreadForMessage(tc.msg); got != tc.want {
				t.Errorf("ThreadForMessage = %d, want %d", got, tc.want)
			}
		})
	}
}
