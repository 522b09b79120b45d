package analysis

import (
	"fmt"
	"strings"

	"rexpaces/internal/textutil"
)

const summarizeTemplate = `You are summarizing a segment of a conversation from a Twitter/X Space.

SEGMENT %d (%s - %s):
%s

Provide a 1-2 sentence summary of what is discussed in this segment. Focus on the main topics, key points, or any notable moments. Be concise and factual.

Summary:`

const contextTemplate = `You are analyzing a Twitter/X Space conversation. Below are summaries of each segment of the conversation.

SEGMENT SUMMARIES:
%s

Based on these summaries, extract the following information about the overall conversation. Respond in JSON format only, no additional text.

{
  "topic": "The main topic or theme of the conversation (1 sentence)",
  "participants": ["List of speaker names or roles mentioned, if identifiable"],
  "keyPoints": ["List of 3-5 key discussion points or themes"],
  "narrative": "A brief narrative arc of how the conversation progressed (2-3 sentences)"
}

JSON:`

const detectTemplate = `You are identifying highlight-worthy moments from a Twitter/X Space conversation for creating short video clips.

CONVERSATION CONTEXT:
- Topic: %s
- Key themes: %s
- Narrative: %s

CURRENT SEGMENT (%s - %s):
%s

Identify 0-3 highlight-worthy moments from this segment. A good highlight is:
- An insightful or thought-provoking statement
- A memorable quote or strong opinion
- An interesting fact, statistic, or revelation
- A moment of humor or wit
- A key conclusion or important point

For each highlight, provide the EXACT quote (word-for-word as it appears in the text) and a brief reason why it's highlight-worthy.

Respond in JSON format only, no additional text. If no highlights are found, return an empty array.

[
  {
    "quote": "exact quote from the transcript",
    "reason": "why this is highlight-worthy"
  }
]

JSON:`

// SummarizePrompt asks for a one or two sentence digest of a chunk. Segment
// numbers are one-based.
func SummarizePrompt(text string, index int, start, end float64) string {
	return fmt.Sprintf(summarizeTemplate, index+1, textutil.FormatClock(start), textutil.FormatClock(end), text)
}

// ContextPrompt asks for the conversation context as a JSON object.
func ContextPrompt(summaries []ChunkSummary) string {
	lines := make([]string, 0, len(summaries))
	for _, s := range summaries {
		lines = append(lines, fmt.Sprintf("[%s - %s]: %s",
			textutil.FormatClock(s.StartTime), textutil.FormatClock(s.EndTime), s.Summary))
	}
	return fmt.Sprintf(contextTemplate, strings.Join(lines, "\n"))
}

// DetectPrompt asks for up to three verbatim quotes from a chunk.
func DetectPrompt(text string, start, end float64, conv ConversationContext) string {
	return fmt.Sprintf(detectTemplate,
		conv.Topic,
		strings.Join(conv.KeyPoints, ", "),
		conv.Narrative,
		textutil.FormatClock(start),
		textutil.FormatClock(end),
		text,
	)
}
