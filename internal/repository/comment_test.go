package repository

import (
	"context"
	"testing"

	"praxis/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_ListByPost(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "author")
	voter := seedUser(t, db, "voter")
	post := seedPost(t, db, author, models.PostStatusApproved)
	other := seedPost(t, db, author, models.PostStatusApproved)

	c1 := seedComment(t, db, author, post, nil)
	c2 := seedComment(t, db, author, post, &c1.ID)
	seedComment(t, db, author, other, nil)
	require.NoError(t, db.Create(&models.CommentLike{UserID: voter.ID, CommentID: c1.ID}).Error)

	comments, err := repo.ListByPost(ctx, post.ID, voter.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)

	// oldest first, with like counts and viewer markers computed
	assert.Equal(t, c1.ID, comments[0].ID)
	assert.Equal(t, c2.ID, comments[1].ID)
	assert.Equal(t, 1, comments[0].LikesCount)
	assert.True(t, comments[0].Liked)
	assert.False(t, comments[1].Liked)
	assert.Equal(t, author.Username, comments[0].User.Username)
}

func TestCommentRepository_ListIDsByParents(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "author")
	post := seedPost(t, db, author, models.PostStatusApproved)

	root := seedComment(t, db, author, post, nil)
	child1 := seedComment(t, db, author, post, &root.ID)
	child2 := seedComment(t, db, author, post, &root.ID)
	grandchild := seedComment(t, db, author, post, &child1.ID)

	ids, err := repo.ListIDsByParents(ctx, []uint{root.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{child1.ID, child2.ID}, ids)

	ids, err = repo.ListIDsByParents(ctx, []uint{child1.ID, child2.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{grandchild.ID}, ids)

	ids, err = repo.ListIDsByParents(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCommentRepository_DeleteByIDs(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "author")
	post := seedPost(t, db, author, models.PostStatusApproved)
	c1 := seedComment(t, db, author, post, nil)
	c2 := seedComment(t, db, author, post, nil)

	require.NoError(t, repo.DeleteByIDs(ctx, []uint{c1.ID}))

	// hard delete, no soft-deleted residue
	var count int64
	db.Unscoped().Model(&models.Comment{}).Where("id = ?", c1.ID).Count(&count)
	assert.Equal(t, int64(0), count)
	db.Model(&models.Comment{}).Where("id = ?", c2.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}
