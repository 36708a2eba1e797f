package chat

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/docchat/internal/llm"
	"github.com/ziadkadry99/docchat/internal/session"
	"github.com/ziadkadry99/docchat/internal/vectordb"
)

const documentSystemPrompt = `Use the following pieces of context from the document %q to answer the user's question. If you don't know the answer, just say that you don't know, don't try to make up an answer.
----------------
%s`

const condensePrompt = `Given the following conversation and a follow up question, rephrase the follow up question to be a standalone question, in its original language. Reply with the question only.

Chat History:
%s
Follow Up Input: %s
Standalone question:`

// buildDocumentMessages assembles the retrieved passages, the prior turns
// and the new question into one request.
func buildDocumentMessages(document string, matches []vectordb.Match, prior []session.Turn, question string) []llm.Message {
	passages := make([]string, len(matches))
	for i, m := range matches {
		passages[i] = m.Content
	}

	msgs := make([]llm.Message, 0, len(prior)+2)
	msgs = append(msgs, llm.Message{
		Role:    llm.RoleSystem,
		Content: fmt.Sprintf(documentSystemPrompt, document, strings.Join(passages, "\n\n")),
	})
	msgs = append(msgs, session.Messages(prior)...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: question})
	return msgs
}

func buildCondenseMessages(prior []session.Turn, question string) []llm.Message {
	var b strings.Builder
	for _, t := range prior {
		switch t.Role {
		case llm.RoleUser:
			b.WriteString("Human: ")
		default:
			b.WriteString("Assistant: ")
		}
		b.WriteString(t.Text)
		b.WriteByte('\n')
	}
	return []llm.Message{{
		Role:    llm.RoleUser,
		Content: fmt.Sprintf(condensePrompt, strings.TrimRight(b.String(), "\n"), question),
	}}
}
