package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	reply string
	err   error
}

func (s *fakeModel) GenerateContent(_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: s.reply}},
	}, nil
}

func (s *fakeModel) Call(_ context.Context, _ string, _ ...llms.CallOption) (string, error) {
	return s.reply, s.err
}

func newFakeGenerator(reply string, err error) *Generator {
	return &Generator{
		model:     &fakeModel{reply: reply, err: err},
		textModel: "test-model",
	}
}

func TestGenerateTweetCleansContent(t *testing.T) {
	gen := newFakeGenerator(`"AI is changing everything #AI #Tech in how we build software."`, nil)

	content, err := gen.GenerateTweet(context.Background(), "artificial intelligence")
	require.NoError(t, err)

	assert.NotContains(t, content, "#")
	assert.False(t, strings.HasPrefix(content, `"`))
	assert.LessOrEqual(t, utf8.RuneCountInString(content), 240)
}

func TestGenerateTweetPropagatesModelError(t *testing.T) {
	gen := newFakeGenerator("", errors.New("upstream down"))

	_, err := gen.GenerateTweet(context.Background(), "blockchain")
	assert.Error(t, err)
}

func TestCleanContentTruncatesToBudget(t *testing.T) {
	long := strings.Repeat("a", 300)

	cleaned := CleanContent(long)

	assert.Equal(t, 240, utf8.RuneCountInString(cleaned))
	assert.True(t, strings.HasSuffix(cleaned, "..."))
}

func TestCleanContentStripsHashtagTokens(t *testing.T) {
	cleaned := CleanContent(`'Great insights on cloud #Cloud #DevOps today'`)

	assert.NotContains(t, cleaned, "#")
	assert.False(t, strings.HasPrefix(cleaned, "'"))
}

func TestParseHashtags(t *testing.T) {
	tags := ParseHashtags("#AI #MachineLearning, #Tech! #Extra")

	assert.Equal(t, []string{"#AI", "#MachineLearning", "#Tech"}, tags)
}

func TestParseHashtagsIgnoresPlainWords(t *testing.T) {
	tags := ParseHashtags("here are some tags: #Go and golang")

	assert.Equal(t, []string{"#Go"}, tags)
}

func TestGenerateHashtagsCapsAtThree(t *testing.T) {
	gen := newFakeGenerator("#One #Two #Three #Four #Five", nil)

	tags, err := gen.GenerateHashtags(context.Background(), "content", "technology")
	require.NoError(t, err)
	assert.Len(t, tags, 3)
}

func TestFallbackHashtags(t *testing.T) {
	assert.Equal(t, []string{"#Tech", "#Innovation", "#AI"}, FallbackHashtags("technology"))
	assert.Equal(t, []string{"#Daily", "#Inspiration", "#Knowledge"}, FallbackHashtags("quantum computing"))
}
