package server

import (
	"net/http"

	"github.com/valpere/editeur/internal/orchestrator"
)

type texteIn struct {
	Texte    string `json:"texte"`
	Markdown bool   `json:"markdown,omitempty"`
}

func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	var in texteIn
	if err := decode(w, r, &in); err != nil {
		badRequest(w, err)
		return
	}
	segments := s.orch.Segment(r.Context(), in.Texte, in.Markdown)
	if segments == nil {
		segments = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"segments": segments})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var in texteIn
	if err := decode(w, r, &in); err != nil {
		badRequest(w, err)
		return
	}
	label := s.orch.Classify(r.Context(), in.Texte)
	writeJSON(w, http.StatusOK, map[string]string{"contexte": label.Wire()})
}

// harmoniserIn accepts either a segment list or free-form content.
type harmoniserIn struct {
	Segments  []string `json:"segments"`
	Contenu   *string  `json:"contenu"`
	Consignes string   `json:"consignes"`
}

func (s *Server) handleHarmonize(w http.ResponseWriter, r *http.Request) {
	var in harmoniserIn
	if err := decode(w, r, &in); err != nil {
		badRequest(w, err)
		return
	}

	if in.Contenu != nil && in.Segments == nil {
		res, err := s.orch.HarmonizeText(r.Context(), *in.Contenu, in.Consignes)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"harmonisation": res.Text, "source": res.Source})
		return
	}

	res, err := s.orch.Harmonize(r.Context(), in.Segments, in.Consignes)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"segments": res.Segments, "source": res.Source})
}

type suggestIn struct {
	Contenu   string `json:"contenu"`
	Consignes string `json:"consignes"`
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var in suggestIn
	if err := decode(w, r, &in); err != nil {
		badRequest(w, err)
		return
	}
	res, err := s.orch.Suggest(r.Context(), in.Contenu, in.Consignes)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"suggestion": res.Text, "source": res.Source})
}

type traduireIn struct {
	Texte        string `json:"texte"`
	LangueCible  string `json:"langue_cible"`
	LangueSource string `json:"langue_source"`
	Consignes    string `json:"consignes"`
}

type traduireOut struct {
	Traduction   string `json:"traduction"`
	LangueSource string `json:"langue_source,omitempty"`
	Fournisseur  string `json:"fournisseur,omitempty"`
	Modele       string `json:"modele,omitempty"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var in traduireIn
	if err := decode(w, r, &in); err != nil {
		badRequest(w, err)
		return
	}
	res, err := s.orch.Translate(r.Context(), orchestrator.Request{
		Text:       in.Texte,
		TargetLang: in.LangueCible,
		SourceLang: in.LangueSource,
		Directives: in.Consignes,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, traduireOut{
		Traduction:   res.Text,
		LangueSource: res.SourceLang,
		Fournisseur:  res.Provider,
		Modele:       res.Model,
	})
}

type evaluerIn struct {
	Reference  string `json:"reference"`
	Hypothesis string `json:"hypothesis"`
}

type scoreOut struct {
	Score float64 `json:"score"`
}

type evaluerOut struct {
	BLEU  scoreOut `json:"bleu"`
	COMET scoreOut `json:"comet"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var in evaluerIn
	if err := decode(w, r, &in); err != nil {
		badRequest(w, err)
		return
	}
	score, err := s.orch.Evaluate(r.Context(), in.Reference, in.Hypothesis)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, evaluerOut{
		BLEU:  scoreOut{Score: score.Lexical},
		COMET: scoreOut{Score: score.Semantic},
	})
}
