package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPR(t *testing.T) {
	mergeable := false
	pr := &github.PullRequest{
		Number:         github.Int(42),
		Title:          github.String("Fix parser"),
		HTMLURL:        github.String("https://github.com/o/r/pull/42"),
		State:          github.String("closed"),
		User:           &github.User{Login: github.String("alice")},
		Base:           &github.PullRequestBranch{Ref: github.String("main")},
		Head:           &github.PullRequestBranch{Ref: github.String("fix"), SHA: github.String("head123")},
		MergeCommitSHA: github.String("merge123"),
		Merged:         github.Bool(true),
		Labels:         []*github.Label{{Name: github.String("backport/6.0")}, {Name: github.String("bug")}},
		Mergeable:      &mergeable,
	}

	got := toPR(pr)

	assert.Equal(t, 42, got.Number)
	assert.Equal(t, "alice", got.Author)
	assert.Equal(t, "main", got.Base)
	assert.Equal(t, "fix", got.Head)
	assert.Equal(t, "https://github.com/o/r/pull/42", got.URL)
	assert.Equal(t, "merge123", got.MergeCommitSHA)
	assert.True(t, got.Merged)
	assert.Equal(t, []string{"backport/6.0", "bug"}, got.Labels)
	require.NotNil(t, got.Mergeable)
	assert.False(t, *got.Mergeable)
	assert.True(t, got.HasLabel("bug"))
	assert.False(t, got.HasLabel("conflicts"))
}

func TestGetPR(t *testing.T) {
	client, mux := setupTestClient(t)
	mux.HandleFunc("GET /repos/test-org/test-repo/pulls/7", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"number":7,"title":"Add feature","state":"closed","merged":true,
			"merge_commit_sha":"abc","user":{"login":"bob"},"base":{"ref":"main"},
			"labels":[{"name":"backport/5.4"}]}`)
	})

	pr, err := client.GetPR(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, pr.Number)
	assert.Equal(t, "bob", pr.Author)
	assert.Equal(t, "abc", pr.MergeCommitSHA)
	assert.True(t, pr.Merged)
	assert.Equal(t, []string{"backport/5.4"}, pr.Labels)
}

func TestGetPR_Error(t *testing.T) {
	client, mux := setupTestClient(t)
	mux.HandleFunc("GET /repos/test-org/test-repo/pulls/8", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})

	_, err := client.GetPR(context.Background(), 8)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch PR #8")
}

func TestPullRequestsForCommit(t *testing.T) {
	client, mux := setupTestClient(t)
	mux.HandleFunc("GET /repos/test-org/test-repo/commits/c1/pulls", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"number":3,"base":{"ref":"main"},"labels":[{"name":"backport/6.0"}]}]`)
	})

	prs, err := client.PullRequestsForCommit(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, prs, 1)
	assert.Equal(t, 3, prs[0].Number)
	assert.Equal(t, []string{"backport/6.0"}, prs[0].Labels)
}

func TestListPRCommits(t *testing.T) {
	client, mux := setupTestClient(t)
	mux.HandleFunc("GET /repos/test-org/test-repo/pulls/9/commits", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"sha":"p1","commit":{"message":"Add lexer\n\nLonger body"}},
			{"sha":"p2","commit":{"message":"Use lexer in parser"}}]`)
	})

	commits, err := client.ListPRCommits(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, []PRCommit{
		{SHA: "p1", Subject: "Add lexer"},
		{SHA: "p2", Subject: "Use lexer in parser"},
	}, commits)
}

func TestClosingCommit(t *testing.T) {
	tests := []struct {
		name   string
		events string
		want   string
	}{
		{
			name:   "closed by commit",
			events: `[{"event":"labeled"},{"event":"closed","commit_id":"c1"}]`,
			want:   "c1",
		},
		{
			name:   "latest close after reopen",
			events: `[{"event":"closed","commit_id":"c1"},{"event":"reopened"},{"event":"closed","commit_id":"c2"}]`,
			want:   "c2",
		},
		{
			name:   "closed without commit",
			events: `[{"event":"closed"}]`,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mux := setupTestClient(t)
			mux.HandleFunc("GET /repos/test-org/test-repo/issues/9/events", func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, tt.events)
			})

			sha, err := client.ClosingCommit(context.Background(), 9)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sha)
		})
	}
}

func TestFindOpenPR(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     int
	}{
		{name: "existing PR", response: `[{"number":11,"state":"open"}]`, want: 11},
		{name: "no PR", response: `[]`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mux := setupTestClient(t)
			mux.HandleFunc("GET /repos/test-org/test-repo/pulls", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "test-org:backport/pr-1/branch-6.0", r.URL.Query().Get("head"))
				assert.Equal(t, "branch-6.0", r.URL.Query().Get("base"))
				assert.Equal(t, "open", r.URL.Query().Get("state"))
				fmt.Fprint(w, tt.response)
			})

			pr, err := client.FindOpenPR(context.Background(), "backport/pr-1/branch-6.0", "branch-6.0")
			require.NoError(t, err)
			if tt.want == 0 {
				assert.Nil(t, pr)
				return
			}
			require.NotNil(t, pr)
			assert.Equal(t, tt.want, pr.Number)
		})
	}
}

func TestCreatePR(t *testing.T) {
	client, mux := setupTestClient(t)
	mux.HandleFunc("POST /repos/test-org/test-repo/pulls", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req map[string]string
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "[branch-6.0] Fix parser", req["title"])
		assert.Equal(t, "backport/pr-1/branch-6.0", req["head"])
		assert.Equal(t, "branch-6.0", req["base"])
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"number":99}`)
	})

	number, err := client.CreatePR(context.Background(), "[branch-6.0] Fix parser", "body", "backport/pr-1/branch-6.0", "branch-6.0")
	require.NoError(t, err)
	assert.Equal(t, 99, number)
}

func TestListOpenPRs_Bounded(t *testing.T) {
	client, mux := setupTestClient(t)
	mux.HandleFunc("GET /repos/test-org/test-repo/pulls", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("per_page"))
		assert.Equal(t, "updated", r.URL.Query().Get("sort"))
		w.Header().Set("Link", `<https://api.github.com/repos/test-org/test-repo/pulls?page=2>; rel="next"`)
		fmt.Fprint(w, `[{"number":1,"base":{"ref":"main"}},{"number":2,"base":{"ref":"branch-6.0"}}]`)
	})

	prs, err := client.ListOpenPRs(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, prs, 2)
	assert.Equal(t, "branch-6.0", prs[1].Base)
}

func TestGetMergeable_RereadsWhenUnknown(t *testing.T) {
	previous := mergeableRetryDelay
	mergeableRetryDelay = 0
	t.Cleanup(func() { mergeableRetryDelay = previous })

	client, mux := setupTestClient(t)
	calls := 0
	mux.HandleFunc("GET /repos/test-org/test-repo/pulls/5", func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			fmt.Fprint(w, `{"number":5,"state":"open","mergeable":null}`)
			return
		}
		fmt.Fprint(w, `{"number":5,"state":"open","mergeable":false}`)
	})

	mergeable, err := client.GetMergeable(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, mergeable)
	assert.False(t, *mergeable)
	assert.Equal(t, 2, calls)
}

func TestGetMergeable_KnownOnFirstRead(t *testing.T) {
	client, mux := setupTestClient(t)
	calls := 0
	mux.HandleFunc("GET /repos/test-org/test-repo/pulls/6", func(w http.ResponseWriter, _ *http.Request) {
		calls++
		fmt.Fprint(w, `{"number":6,"state":"open","mergeable":true}`)
	})

	mergeable, err := client.GetMergeable(context.Background(), 6)
	require.NoError(t, err)
	require.NotNil(t, mergeable)
	assert.True(t, *mergeable)
	assert.Equal(t, 1, calls)
}
