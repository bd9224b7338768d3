package questionprovider

import (
	"context"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/quiz-access-service/internal/models"
)

type bankEntry struct {
	question    string
	options     []string
	correct     int
	explanation string
}

// Bank выдает вопросы из встроенного резервного набора. Набор небольшой,
// но гарантирует, что викторина не останется без вопроса при отказе
// внешнего генератора.
type Bank struct {
	mu   sync.Mutex
	rnd  *rand.Rand
	pool map[models.Subject][]bankEntry
}

// NewBank создает резервный банк вопросов.
func NewBank(seed int64) *Bank {
	return &Bank{
		rnd:  rand.New(rand.NewSource(seed)),
		pool: offlinePool,
	}
}

// Generate возвращает случайный вопрос из набора по предмету.
// Резервные вопросы всегда помечаются режимом quiz.
func (b *Bank) Generate(_ context.Context, subject models.Subject, _ models.QuizMode,
	difficulty models.Difficulty) (*models.Question, error) {
	entries, ok := b.pool[subject]
	if !ok {
		entries = b.pool[models.SubjectEnglish]
	}

	b.mu.Lock()
	entry := entries[b.rnd.Intn(len(entries))]
	b.mu.Unlock()

	q := &models.Question{
		ID:           "offline_" + uuid.NewString(),
		Subject:      subject,
		Mode:         models.ModeQuiz,
		Question:     entry.question,
		Options:      entry.options,
		CorrectIndex: entry.correct,
		Explanation:  entry.explanation,
	}
	if subject == models.SubjectMaths {
		q.Difficulty = difficulty
	}
	return q, nil
}

var offlinePool = map[models.Subject][]bankEntry{
	models.SubjectEnglish: {
		{
			question:    "Select the most appropriate option to substitute the underlined segment in the given sentence. If no substitution is required, select 'No improvement'. She is one of the most intelligent students that <u>has ever attended</u> this school.",
			options:     []string{"have ever attended", "has been ever attending", "had ever attended", "No improvement"},
			correct:     0,
			explanation: "The relative pronoun 'that' refers to the antecedent 'students' (plural). Therefore, the verb must be plural ('have'). Correct sentence: 'She is one of the most intelligent students that have ever attended this school'.",
		},
		{
			question:    "Identify the segment in the sentence which contains a grammatical error. <br/> The river has overflown its banks due to heavy rain.",
			options:     []string{"The river has", "overflown its banks", "due to", "heavy rain"},
			correct:     1,
			explanation: "The past participle of 'overflow' is 'overflowed', not 'overflown'. 'Overflown' is the past participle of 'overfly'. Correct: 'The river has overflowed its banks'.",
		},
		{
			question:    "Select the appropriate synonym for the word: <b>CANDID</b>",
			options:     []string{"Deceptive", "Frank", "Secretive", "Reserved"},
			correct:     1,
			explanation: "<b>Candid</b> means truthful and straightforward; frank. <br/>Deceptive means misleading.<br/>Secretive means not open.<br/>Reserved means slow to reveal emotion.",
		},
		{
			question:    "Select the correct indirect form of the given sentence.<br/>He said to me, 'What are you doing?'",
			options:     []string{"He asked me what I was doing.", "He asked me what was I doing.", "He asked me what am I doing.", "He told me what I was doing."},
			correct:     0,
			explanation: "In Interrogative sentences reporting verb 'said to' is changed to 'asked'. The question form is changed to statement form (Subject + Verb). 'Are you doing' (Present Continuous) changes to 'was doing' (Past Continuous).",
		},
		{
			question:    "Select the correctly spelt word.",
			options:     []string{"Accomodation", "Accommodation", "Acommodation", "Acomodation"},
			correct:     1,
			explanation: "The correct spelling is <b>Accommodation</b> (double 'c', double 'm').",
		},
	},
	models.SubjectGK: {
		{
			question:    "Who was the first Governor-General of independent India? || स्वतंत्र भारत के प्रथम गवर्नर-जनरल कौन थे?",
			options:     []string{"C. Rajagopalachari || सी. राजगोपालाचारी", "Lord Mountbatten || लॉर्ड माउंटबेटन", "Rajendra Prasad || राजेंद्र प्रसाद", "Jawaharlal Nehru || जवाहरलाल नेहरू"},
			correct:     1,
			explanation: "Lord Mountbatten was the first Governor-General of independent India (1947-48). C. Rajagopalachari was the first and last Indian Governor-General (1948-50). || लॉर्ड माउंटबेटन स्वतंत्र भारत के पहले गवर्नर-जनरल (1947-48) थे। सी. राजगोपालाचारी पहले और अंतिम भारतीय गवर्नर-जनरल (1948-50) थे।",
		},
		{
			question:    "Which Article of the Indian Constitution deals with the abolition of Untouchability? || भारतीय संविधान का कौन सा अनुच्छेद अस्पृश्यता के उन्मूलन से संबंधित है?",
			options:     []string{"Article 16 || अनुच्छेद 16", "Article 17 || अनुच्छेद 17", "Article 18 || अनुच्छेद 18", "Article 21 || अनुच्छेद 21"},
			correct:     1,
			explanation: "<b>Article 17</b> abolishes 'untouchability' and forbids its practice in any form. || <b>अनुच्छेद 17</b> 'अस्पृश्यता' को समाप्त करता है और किसी भी रूप में इसके अभ्यास को रोकता है।",
		},
		{
			question:    "Where is the headquarters of ISRO located? || इसरो (ISRO) का मुख्यालय कहाँ स्थित है?",
			options:     []string{"New Delhi || नई दिल्ली", "Mumbai || मुंबई", "Bengaluru || बेंगलुरु", "Chennai || चेन्नई"},
			correct:     2,
			explanation: "The headquarters of Indian Space Research Organisation (ISRO) is in <b>Bengaluru</b>. It was formed in 1969. || भारतीय अंतरिक्ष अनुसंधान संगठन (ISRO) का मुख्यालय <b>बेंगलुरु</b> में है। इसका गठन 1969 में हुआ था।",
		},
		{
			question:    "Which acid is present in Ant stings? || चींटी के डंक में कौन सा अम्ल होता है?",
			options:     []string{"Formic Acid || फार्मिक अम्ल", "Acetic Acid || एसिटिक अम्ल", "Citric Acid || साइट्रिक अम्ल", "Lactic Acid || लैक्टिक अम्ल"},
			correct:     0,
			explanation: "Ant stings contain <b>Formic Acid</b> (Methanoic acid). This causes the burning sensation. || चींटी के डंक में <b>फार्मिक अम्ल</b> (मेथेनोइक अम्ल) होता है। इसी कारण जलन होती है।",
		},
	},
	models.SubjectMaths: {
		{
			question:    "If x + 1/x = 4, then find the value of x^2 + 1/x^2. || यदि x + 1/x = 4 है, तो x^2 + 1/x^2 का मान ज्ञात कीजिए।",
			options:     []string{"14", "16", "12", "18"},
			correct:     0,
			explanation: "Formula: If x + 1/x = k, then x^2 + 1/x^2 = k^2 - 2. <br/> Here, k = 4. <br/> So, 4^2 - 2 = 16 - 2 = <b>14</b>. || सूत्र: यदि x + 1/x = k, तो x^2 + 1/x^2 = k^2 - 2. <br/> यहाँ, k = 4. <br/> अतः, 4^2 - 2 = 16 - 2 = <b>14</b>.",
		},
		{
			question:    "A alone can do a piece of work in 6 days and B alone in 8 days. A and B undertook to do it for Rs. 3200. With the help of C, they completed the work in 3 days. How much is to be paid to C? || A अकेले एक काम को 6 दिनों में और B अकेले 8 दिनों में कर सकता है। A और B ने इसे 3200 रुपये में करने का जिम्मा लिया। C की मदद से, उन्होंने 3 दिनों में काम पूरा कर लिया। C को कितना भुगतान किया जाना चाहिए?",
			options:     []string{"Rs. 375", "Rs. 400", "Rs. 600", "Rs. 800"},
			correct:     1,
			explanation: "C's 1 day work = 1/3 - (1/6 + 1/8) = 1/3 - 7/24 = 1/24. <br/> Ratio of work done by A:B:C = 1/6 : 1/8 : 1/24 = 4:3:1. <br/> C's share = (1/8) * 3200 = <b>Rs. 400</b>.",
		},
		{
			question:    "The marked price of an article is Rs. 500. It is sold at a discount of 20%. If the profit is 25%, find the cost price. || एक वस्तु का अंकित मूल्य 500 रुपये है। इसे 20% की छूट पर बेचा जाता है। यदि लाभ 25% है, तो क्रय मूल्य ज्ञात कीजिए।",
			options:     []string{"Rs. 300", "Rs. 320", "Rs. 350", "Rs. 375"},
			correct:     1,
			explanation: "SP = 500 * (80/100) = Rs. 400. <br/> CP = SP * (100 / (100 + Profit%)) <br/> CP = 400 * (100/125) = 400 * 4/5 = <b>Rs. 320</b>.",
		},
	},
	models.SubjectVocab: {
		{
			question:    "Select the most appropriate antonym of the given word: <b>OBSTRUCT</b>",
			options:     []string{"Block", "Prevent", "Assist", "Hamper"},
			correct:     2,
			explanation: "<b>Obstruct</b> means to block or get in the way of. <br/><b>Assist</b> means to help or make easier, which is the opposite.",
		},
		{
			question:    "Select the most appropriate synonym of the given word: <b>LETHARGIC</b>",
			options:     []string{"Active", "Lazy", "Sharp", "Bright"},
			correct:     1,
			explanation: "<b>Lethargic</b> means lacking energy or enthusiasm. <br/><b>Lazy</b> is the closest synonym. Active, Sharp, and Bright are antonyms.",
		},
		{
			question:    "One who knows everything.",
			options:     []string{"Omnipresent", "Omnipotent", "Omniscient", "Gullible"},
			correct:     2,
			explanation: "<b>Omniscient</b>: Knowing everything. <br/>Omnipresent: Present everywhere. <br/>Omnipotent: Having unlimited power.",
		},
	},
}
