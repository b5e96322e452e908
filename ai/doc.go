// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ai defines the sentiment classification capability used to enrich
// records.
//
// SentimentClassifier is the only service interface. Implementations live in
// sub-packages:
//
//   - ai/comprehend: Amazon Comprehend DetectSentiment
//   - ai/openai: any OpenAI-compatible chat model, prompted for a JSON label
//   - ai/mock: test doubles with injectable behavior and call counts
//
// Public constructors of the production implementations return the
// interface; mock constructors return concrete types so tests can inspect
// call counts and swap behavior.
//
//	cfg := ai.NewConfig(ai.WithProvider(ai.ProviderOpenAI), ai.WithModel("gpt-4o-mini"))
//	classifier, err := openai.NewClassifier(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := classifier.DetectSentiment(ctx, "what a lovely day", "en")
package ai
